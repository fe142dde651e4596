package model

import "time"

// Playlist is an ordered collection of tracks. The playback queue only ever
// holds a copy of Songs, so queue mutations never reach the playlist.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Songs       []Track   `json:"songs"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	IsGenerated bool      `json:"isAIGenerated"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Origin      OriginTag `json:"source,omitempty"` // predominant origin, informational
}

// ContainsSong reports whether a track id is already in the playlist.
// Duplicates by id are forbidden within one playlist.
func (p *Playlist) ContainsSong(trackID string) bool {
	for i := range p.Songs {
		if p.Songs[i].ID == trackID {
			return true
		}
	}
	return false
}

// AppData is the full persisted library state: everything that round-trips
// through the export blob.
type AppData struct {
	Playlists        []Playlist `json:"playlists"`
	RecentSongs      []Track    `json:"recentSongs"`
	Favorites        []Track    `json:"favorites"`
	Settings         Settings   `json:"settings"`
	IsDarkMode       bool       `json:"isDarkMode"`
	SidebarCollapsed bool       `json:"sidebarCollapsed"`
}
