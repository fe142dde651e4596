package library

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"BuggyFM/model"
)

// ErrPlaylistNotFound is returned when a playlist id resolves to nothing.
var ErrPlaylistNotFound = errors.New("playlist not found")

// maxRecents caps the recently-played list.
const maxRecents = 50

// Library holds the user's collection state: playlists, favorites and the
// recently-played list. All methods are safe for concurrent use and every
// returned slice is a copy, so callers can never alias internal state.
type Library struct {
	mu        sync.Mutex
	playlists []model.Playlist
	favorites []model.Track
	recents   []model.Track
	darkMode  bool
	collapsed bool
	settings  model.Settings
}

// New creates an empty library with default settings.
func New() *Library {
	return &Library{
		settings: model.DefaultSettings(),
	}
}

// CreatePlaylist adds a new empty playlist and returns it.
func (l *Library) CreatePlaylist(name, description string, generated bool) model.Playlist {
	now := time.Now()
	p := model.Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Songs:       []model.Track{},
		CreatedAt:   now,
		UpdatedAt:   now,
		IsGenerated: generated,
	}

	l.mu.Lock()
	l.playlists = append(l.playlists, p)
	l.mu.Unlock()

	return clonePlaylist(p)
}

// Playlists returns all playlists in creation order.
func (l *Library) Playlists() []model.Playlist {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Playlist, len(l.playlists))
	for i, p := range l.playlists {
		out[i] = clonePlaylist(p)
	}
	return out
}

// Playlist looks up one playlist by id.
func (l *Library) Playlist(id string) (model.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.playlists {
		if p.ID == id {
			return clonePlaylist(p), nil
		}
	}
	return model.Playlist{}, ErrPlaylistNotFound
}

// RenamePlaylist changes a playlist's name.
func (l *Library) RenamePlaylist(id, name string) error {
	return l.update(id, func(p *model.Playlist) {
		p.Name = name
	})
}

// SetDescription changes a playlist's description.
func (l *Library) SetDescription(id, description string) error {
	return l.update(id, func(p *model.Playlist) {
		p.Description = description
	})
}

// SetCover changes a playlist's cover image URL.
func (l *Library) SetCover(id, coverURL string) error {
	return l.update(id, func(p *model.Playlist) {
		p.CoverImage = coverURL
	})
}

// AddSong appends a track to a playlist. A track already in the playlist is
// left alone; adding it again is not an error.
func (l *Library) AddSong(playlistID string, track model.Track) error {
	return l.update(playlistID, func(p *model.Playlist) {
		if p.ContainsSong(track.ID) {
			return
		}
		p.Songs = append(p.Songs, track)
	})
}

// RemoveSong removes a track from a playlist by id.
func (l *Library) RemoveSong(playlistID, trackID string) error {
	return l.update(playlistID, func(p *model.Playlist) {
		songs := p.Songs[:0]
		for _, s := range p.Songs {
			if s.ID != trackID {
				songs = append(songs, s)
			}
		}
		p.Songs = songs
	})
}

// DeletePlaylist removes a playlist entirely.
func (l *Library) DeletePlaylist(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.playlists {
		if p.ID == id {
			l.playlists = append(l.playlists[:i], l.playlists[i+1:]...)
			return nil
		}
	}
	return ErrPlaylistNotFound
}

// update applies fn to the playlist with the given id under the lock and
// bumps its UpdatedAt.
func (l *Library) update(id string, fn func(*model.Playlist)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.playlists {
		if l.playlists[i].ID == id {
			fn(&l.playlists[i])
			l.playlists[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrPlaylistNotFound
}

// Queue returns a playlist's tracks as an independent play queue. Mutating
// the returned slice never touches the playlist.
func (l *Library) Queue(playlistID string) ([]model.Track, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.playlists {
		if p.ID == playlistID {
			return append([]model.Track(nil), p.Songs...), nil
		}
	}
	return nil, ErrPlaylistNotFound
}

// ToggleFavorite adds the track to favorites, or removes it when already
// present. Returns whether the track is a favorite afterwards.
func (l *Library) ToggleFavorite(track model.Track) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, f := range l.favorites {
		if f.ID == track.ID {
			l.favorites = append(l.favorites[:i], l.favorites[i+1:]...)
			return false
		}
	}
	l.favorites = append(l.favorites, track)
	return true
}

// IsFavorite reports whether a track id is in favorites.
func (l *Library) IsFavorite(trackID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range l.favorites {
		if f.ID == trackID {
			return true
		}
	}
	return false
}

// Favorites returns the favorites in insertion order.
func (l *Library) Favorites() []model.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Track(nil), l.favorites...)
}

// AddRecent puts the track at the head of the recently-played list, dropping
// any earlier occurrence and trimming the list to its cap.
func (l *Library) AddRecent(track model.Track) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]model.Track, 0, len(l.recents)+1)
	next = append(next, track)
	for _, r := range l.recents {
		if r.ID != track.ID {
			next = append(next, r)
		}
	}
	if len(next) > maxRecents {
		next = next[:maxRecents]
	}
	l.recents = next
}

// Recents returns the recently-played list, most recent first.
func (l *Library) Recents() []model.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Track(nil), l.recents...)
}

// Settings returns the current settings.
func (l *Library) Settings() model.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// UpdateSettings replaces the settings.
func (l *Library) UpdateSettings(s model.Settings) {
	l.mu.Lock()
	l.settings = s
	l.mu.Unlock()
}

// SetUIFlags stores the persisted interface flags. Opaque to playback.
func (l *Library) SetUIFlags(darkMode, sidebarCollapsed bool) {
	l.mu.Lock()
	l.darkMode = darkMode
	l.collapsed = sidebarCollapsed
	l.mu.Unlock()
}

// Export snapshots the whole library as an AppData blob.
func (l *Library) Export() model.AppData {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := model.AppData{
		Playlists:        make([]model.Playlist, len(l.playlists)),
		RecentSongs:      append([]model.Track(nil), l.recents...),
		Favorites:        append([]model.Track(nil), l.favorites...),
		Settings:         l.settings,
		IsDarkMode:       l.darkMode,
		SidebarCollapsed: l.collapsed,
	}
	for i, p := range l.playlists {
		data.Playlists[i] = clonePlaylist(p)
	}
	return data
}

// Import replaces the whole library from an AppData blob.
func (l *Library) Import(data model.AppData) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.playlists = make([]model.Playlist, len(data.Playlists))
	for i, p := range data.Playlists {
		l.playlists[i] = clonePlaylist(p)
	}
	l.favorites = append([]model.Track(nil), data.Favorites...)
	l.recents = append([]model.Track(nil), data.RecentSongs...)
	if len(l.recents) > maxRecents {
		l.recents = l.recents[:maxRecents]
	}
	l.settings = data.Settings
	l.darkMode = data.IsDarkMode
	l.collapsed = data.SidebarCollapsed
}

func clonePlaylist(p model.Playlist) model.Playlist {
	p.Songs = append([]model.Track(nil), p.Songs...)
	return p
}
