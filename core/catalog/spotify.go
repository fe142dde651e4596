package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

var (
	spotifyTrackPattern    = regexp.MustCompile(`(?:spotify\.com/track/|spotify:track:)([a-zA-Z0-9]+)`)
	spotifyPlaylistPattern = regexp.MustCompile(`(?:spotify\.com/playlist/|spotify:playlist:)([a-zA-Z0-9]+)`)
)

// TokenSource supplies a bearer token for the streaming platform's Web API.
type TokenSource interface {
	AccessToken() (string, bool)
}

// SpotifyClient reads the streaming platform catalog: track search, track
// lookup and playlist contents. All calls carry the session's bearer token.
type SpotifyClient struct {
	apiURL     string
	tokens     TokenSource
	httpClient *http.Client
}

// NewSpotifyClient creates a catalog client against apiURL.
func NewSpotifyClient(apiURL string, tokens TokenSource) *SpotifyClient {
	return &SpotifyClient{
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	DurationMs   int64 `json:"duration_ms"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	PreviewURL string `json:"preview_url"`
}

func (t spotifyTrack) toTrack() model.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	thumbnail := ""
	if len(t.Album.Images) > 0 {
		thumbnail = t.Album.Images[0].URL
	}
	return model.Track{
		ID:          "spotify_" + t.ID,
		Title:       t.Name,
		Artist:      strings.Join(artists, ", "),
		Duration:    float64(t.DurationMs) / 1000,
		Origin:      model.OriginRemoteSession,
		PlaybackURI: t.ExternalURLs.Spotify,
		Thumbnail:   thumbnail,
		AddedAt:     time.Now(),
		PreviewURL:  t.PreviewURL,
		RemoteID:    t.ID,
	}
}

// SearchTracks finds tracks matching the query. Failures return an empty
// result rather than an error; search is best-effort.
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) []model.Track {
	if limit <= 0 {
		limit = 20
	}

	var out struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		logger.Warn("spotify search failed", logger.String("query", query), logger.ErrorField(err))
		return []model.Track{}
	}

	tracks := make([]model.Track, 0, len(out.Tracks.Items))
	for _, t := range out.Tracks.Items {
		tracks = append(tracks, t.toTrack())
	}
	return tracks
}

// Track looks up one track by its platform id.
func (c *SpotifyClient) Track(ctx context.Context, trackID string) (model.Track, error) {
	var t spotifyTrack
	if err := c.getJSON(ctx, "/tracks/"+trackID, &t); err != nil {
		return model.Track{}, err
	}
	return t.toTrack(), nil
}

// FindTrack searches for one track by title and artist, field-scoped.
func (c *SpotifyClient) FindTrack(ctx context.Context, title, artist string) (model.Track, bool) {
	query := fmt.Sprintf("track:%q artist:%q", title, artist)
	results := c.SearchTracks(ctx, query, 1)
	if len(results) == 0 {
		return model.Track{}, false
	}
	return results[0], true
}

// PlaylistTracks lists the playable tracks of a platform playlist. Entries
// the platform returns without a track payload are skipped.
func (c *SpotifyClient) PlaylistTracks(ctx context.Context, playlistID string) ([]model.Track, error) {
	var out struct {
		Items []struct {
			Track spotifyTrack `json:"track"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, "/playlists/"+playlistID+"/tracks", &out); err != nil {
		return nil, err
	}

	tracks := make([]model.Track, 0, len(out.Items))
	for _, item := range out.Items {
		if item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, item.Track.toTrack())
	}
	return tracks, nil
}

func (c *SpotifyClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	token, ok := c.tokens.AccessToken()
	if !ok {
		return fmt.Errorf("no spotify credential available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("spotify api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExtractSpotifyTrackID pulls the track id out of a share URL or URI.
func ExtractSpotifyTrackID(rawURL string) string {
	m := spotifyTrackPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ExtractSpotifyPlaylistID pulls the playlist id out of a share URL or URI.
func ExtractSpotifyPlaylistID(rawURL string) string {
	m := spotifyPlaylistPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
