package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT3M30S", 210},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT2H", 7200},
		{"PT0S", 0},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseISODuration(tt.in); got != tt.want {
			t.Errorf("ParseISODuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/playlist?list=PLabc123", "PLabc123"},
		{"https://www.youtube.com/watch?v=x&list=PLdef456&index=2", "PLdef456"},
		{"https://www.youtube.com/watch?v=x", ""},
	}
	for _, tt := range tests {
		if got := ExtractPlaylistID(tt.url); got != tt.want {
			t.Errorf("ExtractPlaylistID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

const ytSearchBody = `{"items":[{"id":{"videoId":"vid1"}},{"id":{"videoId":"vid2"}}]}`

const ytVideosBody = `{"items":[
	{"id":"vid1","snippet":{"title":"Song One","channelTitle":"Channel A",
	 "thumbnails":{"default":{"url":"d1"},"medium":{"url":"m1"}}},
	 "contentDetails":{"duration":"PT3M30S"}},
	{"id":"vid2","snippet":{"title":"Song Two","channelTitle":"Channel B",
	 "thumbnails":{"default":{"url":"d2"},"medium":{"url":""}}},
	 "contentDetails":{"duration":"PT4M"}}
]}`

func TestSearchMapsVideosToTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/search"):
			fmt.Fprint(w, ytSearchBody)
		case strings.HasPrefix(r.URL.Path, "/videos"):
			fmt.Fprint(w, ytVideosBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"key1"})
	tracks := c.Search(context.Background(), "test", 10)

	if len(tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(tracks))
	}
	first := tracks[0]
	if first.ID != "vid1" || first.Title != "Song One" || first.Artist != "Channel A" {
		t.Errorf("track = %+v", first)
	}
	if first.Duration != 210 {
		t.Errorf("duration = %v, want 210", first.Duration)
	}
	if first.PlaybackURI != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("playback URI = %q", first.PlaybackURI)
	}
	if first.Thumbnail != "m1" {
		t.Errorf("thumbnail = %q, want medium", first.Thumbnail)
	}
	// Medium thumbnail missing falls back to default.
	if tracks[1].Thumbnail != "d2" {
		t.Errorf("thumbnail = %q, want default fallback", tracks[1].Thumbnail)
	}
}

func TestKeyRotationTriesEachKeyOnce(t *testing.T) {
	var mu sync.Mutex
	seen := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("key"))
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden) // every key exhausted
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"k1", "k2", "k3"})
	_, err := c.VideoDuration(context.Background(), "vid1")
	if err == nil {
		t.Fatal("expected failure when every key is rejected")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("attempts = %v, want one per key", seen)
	}
	for i, want := range []string{"k1", "k2", "k3"} {
		if seen[i] != want {
			t.Errorf("attempt %d used %q, want %q", i, seen[i], want)
		}
	}
}

func TestKeyRotationRecoversOnLaterKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "k2" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, ytVideosBody)
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"k1", "k2"})
	d, err := c.VideoDuration(context.Background(), "vid1")
	if err != nil {
		t.Fatalf("VideoDuration: %v", err)
	}
	if d != 210 {
		t.Errorf("duration = %v, want 210", d)
	}
}

func TestSearchDegradesToPlaceholders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"k1"})
	tracks := c.Search(context.Background(), "lofi beats", 10)

	if len(tracks) != 5 {
		t.Fatalf("placeholders = %d, want 5", len(tracks))
	}
	if !strings.Contains(tracks[0].Title, "lofi beats") {
		t.Errorf("placeholder title = %q, want query echoed", tracks[0].Title)
	}
	if !strings.HasPrefix(tracks[0].ID, "mock_") {
		t.Errorf("placeholder id = %q, want mock_ prefix", tracks[0].ID)
	}
}

func TestVideoDetailsDegradesToPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"k1"})
	track := c.VideoDetails(context.Background(), "vid9")

	if track.ID != "vid9" {
		t.Errorf("id = %q, want vid9", track.ID)
	}
	if track.Title != "Video Title (API Unavailable)" {
		t.Errorf("title = %q", track.Title)
	}
}

func TestPlaylistItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/playlistItems"):
			fmt.Fprint(w, `{"items":[
				{"snippet":{"resourceId":{"videoId":"vid1"}}},
				{"snippet":{"resourceId":{"videoId":"vid2"}}}
			]}`)
		case strings.HasPrefix(r.URL.Path, "/videos"):
			fmt.Fprint(w, ytVideosBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewYouTubeClient(srv.URL, []string{"k1"})
	tracks, err := c.PlaylistItems(context.Background(), "PLxyz")
	if err != nil {
		t.Fatalf("PlaylistItems: %v", err)
	}
	if len(tracks) != 2 || tracks[1].Title != "Song Two" {
		t.Errorf("tracks = %+v", tracks)
	}
}
