package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeTokens struct {
	token string
	ok    bool
}

func (f fakeTokens) AccessToken() (string, bool) { return f.token, f.ok }

const spotifyTrackBody = `{
	"id":"trk1","name":"Echoes","artists":[{"name":"Artist A"},{"name":"Artist B"}],
	"duration_ms":245500,"external_urls":{"spotify":"https://open.spotify.com/track/trk1"},
	"album":{"images":[{"url":"cover.jpg"}]},"preview_url":"https://p.scdn.co/trk1"
}`

func TestSpotifySearchTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tracks":{"items":[%s]}}`, spotifyTrackBody)
	}))
	defer srv.Close()

	c := NewSpotifyClient(srv.URL, fakeTokens{"tok", true})
	tracks := c.SearchTracks(context.Background(), "echoes", 20)

	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	got := tracks[0]
	if got.ID != "spotify_trk1" || got.RemoteID != "trk1" {
		t.Errorf("ids = %q/%q", got.ID, got.RemoteID)
	}
	if got.Artist != "Artist A, Artist B" {
		t.Errorf("artist = %q", got.Artist)
	}
	if got.Duration != 245.5 {
		t.Errorf("duration = %v, want 245.5", got.Duration)
	}
	if got.PreviewURL != "https://p.scdn.co/trk1" || got.Thumbnail != "cover.jpg" {
		t.Errorf("preview/thumb = %q/%q", got.PreviewURL, got.Thumbnail)
	}
}

func TestSpotifySearchWithoutCredentialIsEmpty(t *testing.T) {
	c := NewSpotifyClient("http://unused", fakeTokens{})
	if tracks := c.SearchTracks(context.Background(), "x", 5); len(tracks) != 0 {
		t.Errorf("tracks = %d, want 0 without credential", len(tracks))
	}
}

func TestSpotifyPlaylistTracksSkipsEmptyEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/playlists/pl1/tracks") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"track":%s},{"track":null},{"track":{"id":""}}]}`, spotifyTrackBody)
	}))
	defer srv.Close()

	c := NewSpotifyClient(srv.URL, fakeTokens{"tok", true})
	tracks, err := c.PlaylistTracks(context.Background(), "pl1")
	if err != nil {
		t.Fatalf("PlaylistTracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Title != "Echoes" {
		t.Errorf("tracks = %+v, want only the playable entry", tracks)
	}
}

func TestSpotifyFindTrackQuotesQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tracks":{"items":[%s]}}`, spotifyTrackBody)
	}))
	defer srv.Close()

	c := NewSpotifyClient(srv.URL, fakeTokens{"tok", true})
	track, ok := c.FindTrack(context.Background(), "Echoes", "Artist A")
	if !ok {
		t.Fatal("expected a match")
	}
	if track.RemoteID != "trk1" {
		t.Errorf("remote id = %q", track.RemoteID)
	}
	if query != `track:"Echoes" artist:"Artist A"` {
		t.Errorf("query = %q", query)
	}
}

func TestExtractSpotifyIDs(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		url  string
		want string
	}{
		{ExtractSpotifyTrackID, "https://open.spotify.com/track/abc123XYZ", "abc123XYZ"},
		{ExtractSpotifyTrackID, "spotify:track:abc123XYZ", "abc123XYZ"},
		{ExtractSpotifyTrackID, "https://example.com/track/abc", ""},
		{ExtractSpotifyPlaylistID, "https://open.spotify.com/playlist/pl42", "pl42"},
		{ExtractSpotifyPlaylistID, "spotify:playlist:pl42", "pl42"},
		{ExtractSpotifyPlaylistID, "https://open.spotify.com/track/abc", ""},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.url); got != tt.want {
			t.Errorf("extract(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
