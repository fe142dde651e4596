package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// appDataHeader is the first line of every exported library blob. The format
// is a quoted delimited-text table with a JSON payload column; quotes inside
// a field are doubled.
const appDataHeader = "Type,ID,Name,Description,Data,CreatedAt,UpdatedAt"

type playlistPayload struct {
	Songs       []songPayload   `json:"songs"`
	IsGenerated bool            `json:"isAIGenerated"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Origin      model.OriginTag `json:"source,omitempty"`
}

type songPayload struct {
	ID         string          `json:"id,omitempty"`
	Title      string          `json:"title"`
	Artist     string          `json:"artist"`
	Duration   float64         `json:"duration"`
	URL        string          `json:"url"`
	Thumbnail  string          `json:"thumbnail"`
	Source     model.OriginTag `json:"source"`
	AddedAt    time.Time       `json:"addedAt,omitempty"`
	PreviewURL string          `json:"previewUrl,omitempty"`
	RemoteID   string          `json:"remoteId,omitempty"`
}

type settingsPayload struct {
	Volume             float64 `json:"volume"`
	AutoPlay           bool    `json:"autoPlay"`
	ShowNotifications  bool    `json:"showNotifications"`
	Language           string  `json:"language"`
	SpotifyAccessToken string  `json:"spotifyAccessToken,omitempty"`
	IsDarkMode         bool    `json:"isDarkMode"`
	SidebarCollapsed   bool    `json:"sidebarCollapsed"`
}

func toSongPayload(t model.Track) songPayload {
	return songPayload{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Duration:   t.Duration,
		URL:        t.PlaybackURI,
		Thumbnail:  t.Thumbnail,
		Source:     t.Origin,
		AddedAt:    t.AddedAt,
		PreviewURL: t.PreviewURL,
		RemoteID:   t.RemoteID,
	}
}

func (p songPayload) toTrack(id string, addedAt time.Time) model.Track {
	if p.ID != "" {
		id = p.ID
	}
	if !p.AddedAt.IsZero() {
		addedAt = p.AddedAt
	}
	return model.Track{
		ID:          id,
		Title:       p.Title,
		Artist:      p.Artist,
		Duration:    p.Duration,
		Origin:      p.Source,
		PlaybackURI: p.URL,
		Thumbnail:   p.Thumbnail,
		AddedAt:     addedAt,
		PreviewURL:  p.PreviewURL,
		RemoteID:    p.RemoteID,
	}
}

// quote wraps a field in quotes, doubling any quote characters inside it.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EncodeAppData renders the library as the delimited-text export format.
func EncodeAppData(data model.AppData) string {
	rows := []string{appDataHeader}

	for _, p := range data.Playlists {
		songs := make([]songPayload, len(p.Songs))
		for i, s := range p.Songs {
			songs[i] = toSongPayload(s)
		}
		payload, err := json.Marshal(playlistPayload{
			Songs:       songs,
			IsGenerated: p.IsGenerated,
			CoverImage:  p.CoverImage,
			Origin:      p.Origin,
		})
		if err != nil {
			logger.Warn("skipping unencodable playlist", logger.String("playlistId", p.ID), logger.ErrorField(err))
			continue
		}
		rows = append(rows, strings.Join([]string{
			"Playlist",
			quote(p.ID),
			quote(p.Name),
			quote(p.Description),
			quote(string(payload)),
			quote(p.CreatedAt.Format(time.RFC3339)),
			quote(p.UpdatedAt.Format(time.RFC3339)),
		}, ","))
	}

	appendSongs := func(kind string, songs []model.Track) {
		for _, s := range songs {
			payload, err := json.Marshal(toSongPayload(s))
			if err != nil {
				logger.Warn("skipping unencodable track", logger.String("trackId", s.ID), logger.ErrorField(err))
				continue
			}
			rows = append(rows, strings.Join([]string{
				kind,
				quote(s.ID),
				quote(s.Title),
				quote(s.Artist),
				quote(string(payload)),
				quote(s.AddedAt.Format(time.RFC3339)),
				quote(""),
			}, ","))
		}
	}
	appendSongs("RecentSong", data.RecentSongs)
	appendSongs("Favorite", data.Favorites)

	settings, err := json.Marshal(settingsPayload{
		Volume:             data.Settings.Volume,
		AutoPlay:           data.Settings.AutoPlay,
		ShowNotifications:  data.Settings.ShowNotifications,
		Language:           data.Settings.Language,
		SpotifyAccessToken: data.Settings.SpotifyAccessToken,
		IsDarkMode:         data.IsDarkMode,
		SidebarCollapsed:   data.SidebarCollapsed,
	})
	if err == nil {
		rows = append(rows, strings.Join([]string{
			"Settings",
			quote("settings"),
			quote("App Settings"),
			quote("User Settings"),
			quote(string(settings)),
			quote(time.Now().Format(time.RFC3339)),
			quote(""),
		}, ","))
	}

	return strings.Join(rows, "\n")
}

// DecodeAppData parses an exported blob. A missing or foreign header fails
// the whole import; a corrupt record only loses that record.
func DecodeAppData(content string) (model.AppData, error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || !strings.Contains(lines[0], appDataHeader) {
		return model.AppData{}, fmt.Errorf("unrecognized export format")
	}

	data := model.AppData{
		Playlists:   []model.Playlist{},
		RecentSongs: []model.Track{},
		Favorites:   []model.Track{},
		Settings: model.Settings{
			Volume:            1,
			AutoPlay:          true,
			ShowNotifications: true,
			Language:          "en",
		},
		IsDarkMode: true,
	}

	for i, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := decodeRecord(line, &data); err != nil {
			logger.Warn("skipping corrupt export record",
				logger.Int("line", i+2),
				logger.ErrorField(err))
		}
	}
	return data, nil
}

func decodeRecord(line string, data *model.AppData) error {
	fields := splitRecord(line)
	if len(fields) < 7 {
		return fmt.Errorf("record has %d fields, want 7", len(fields))
	}
	kind, id, name, description, jsonData := fields[0], fields[1], fields[2], fields[3], fields[4]
	createdAt, _ := time.Parse(time.RFC3339, fields[5])
	updatedAt, _ := time.Parse(time.RFC3339, fields[6])

	switch kind {
	case "Playlist":
		var payload playlistPayload
		if err := json.Unmarshal([]byte(jsonData), &payload); err != nil {
			return fmt.Errorf("playlist payload: %w", err)
		}
		songs := make([]model.Track, len(payload.Songs))
		for i, s := range payload.Songs {
			songs[i] = s.toTrack("", createdAt)
		}
		data.Playlists = append(data.Playlists, model.Playlist{
			ID:          id,
			Name:        name,
			Description: description,
			Songs:       songs,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
			IsGenerated: payload.IsGenerated,
			CoverImage:  payload.CoverImage,
			Origin:      payload.Origin,
		})

	case "RecentSong", "Favorite":
		var payload songPayload
		if err := json.Unmarshal([]byte(jsonData), &payload); err != nil {
			return fmt.Errorf("track payload: %w", err)
		}
		track := payload.toTrack(id, createdAt)
		if kind == "RecentSong" {
			data.RecentSongs = append(data.RecentSongs, track)
		} else {
			data.Favorites = append(data.Favorites, track)
		}

	case "Settings":
		payload := settingsPayload{
			Volume:            1,
			AutoPlay:          true,
			ShowNotifications: true,
			Language:          "en",
			IsDarkMode:        true,
		}
		if err := json.Unmarshal([]byte(jsonData), &payload); err != nil {
			return fmt.Errorf("settings payload: %w", err)
		}
		data.Settings = model.Settings{
			Volume:             payload.Volume,
			AutoPlay:           payload.AutoPlay,
			ShowNotifications:  payload.ShowNotifications,
			Language:           payload.Language,
			SpotifyAccessToken: payload.SpotifyAccessToken,
		}
		data.IsDarkMode = payload.IsDarkMode
		data.SidebarCollapsed = payload.SidebarCollapsed

	default:
		return fmt.Errorf("unknown record type %q", kind)
	}
	return nil
}

// splitRecord walks one export line, honoring quoted fields with doubled
// quotes inside.
func splitRecord(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, current.String())
	return fields
}
