package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"BuggyFM/model"
)

func TestParseSongListCleanJSON(t *testing.T) {
	got := ParseSongList(`["Bohemian Rhapsody - Queen", "Hotel California - Eagles"]`)
	if len(got) != 2 || got[0] != "Bohemian Rhapsody - Queen" {
		t.Errorf("songs = %v", got)
	}
}

func TestParseSongListMarkdownFenced(t *testing.T) {
	reply := "```json\n[\"Billie Jean - Michael Jackson\"]\n```"
	got := ParseSongList(reply)
	if len(got) != 1 || got[0] != "Billie Jean - Michael Jackson" {
		t.Errorf("songs = %v", got)
	}
}

func TestParseSongListSurroundingProse(t *testing.T) {
	reply := `Here are some songs for you:
["Sweet Child O' Mine - Guns N' Roses", "Back in Black - AC/DC"]
Enjoy!`
	got := ParseSongList(reply)
	if len(got) != 2 {
		t.Errorf("songs = %v", got)
	}
}

func TestParseSongListFiltersMalformedEntries(t *testing.T) {
	got := ParseSongList(`["Good Song - Artist", "no separator here", "x - y"]`)
	if len(got) != 1 || got[0] != "Good Song - Artist" {
		t.Errorf("songs = %v, want only the well-formed entry", got)
	}
}

func TestParseSongListCapsAtTwenty(t *testing.T) {
	entries := make([]string, 30)
	for i := range entries {
		entries[i] = fmt.Sprintf("Song Number %d - Artist %d", i, i)
	}
	raw, _ := json.Marshal(entries)

	got := ParseSongList(string(raw))
	if len(got) != 20 {
		t.Errorf("songs = %d, want capped at 20", len(got))
	}
}

func TestParseSongListLineScrapeFallback(t *testing.T) {
	reply := `Sure! Here are my picks:
1. "Wish You Were Here - Pink Floyd"
2. Riders on the Storm - The Doors
- Karma Police - Radiohead
This format is just an example - ignore`
	got := ParseSongList(reply)

	want := []string{
		"Wish You Were Here - Pink Floyd",
		"Riders on the Storm - The Doors",
		"Karma Police - Radiohead",
	}
	if len(got) != len(want) {
		t.Fatalf("songs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("songs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// chatServer fakes an OpenAI-compatible completions endpoint.
func chatServer(t *testing.T, reply func(key string) (string, int)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		content, status := reply(key)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAgent(apiURL string, keys ...string) *Agent {
	return NewAgent(&Config{
		APIBaseURL:  apiURL,
		APIKeys:     keys,
		Model:       "test-model",
		MaxTokens:   512,
		Temperature: 0.7,
	})
}

func TestGeneratePlaylistParsesReply(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) {
		return `["Bohemian Rhapsody - Queen", "Hotel California - Eagles"]`, http.StatusOK
	})

	a := newTestAgent(srv.URL, "k1")
	songs := a.GeneratePlaylist(context.Background(), "classic rock", "", "youtube")
	if len(songs) != 2 {
		t.Errorf("songs = %v", songs)
	}
}

func TestGeneratePlaylistRotatesKeys(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := chatServer(t, func(key string) (string, int) {
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
		if key != "k3" {
			return "", http.StatusTooManyRequests
		}
		return `["Song One - Artist"]`, http.StatusOK
	})

	a := newTestAgent(srv.URL, "k1", "k2", "k3")
	songs := a.GeneratePlaylist(context.Background(), "chill", "", "youtube")

	if len(songs) != 1 {
		t.Fatalf("songs = %v, want success via the third key", songs)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Errorf("attempts = %v, want each key tried once", seen)
	}
}

func TestGeneratePlaylistAllKeysFailingIsEmpty(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) { return "", http.StatusTooManyRequests })

	a := newTestAgent(srv.URL, "k1", "k2")
	songs := a.GeneratePlaylist(context.Background(), "chill", "", "youtube")
	if len(songs) != 0 {
		t.Errorf("songs = %v, want empty on total failure", songs)
	}
}

func TestGeneratePlaylistNameFallsBack(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) { return "", http.StatusInternalServerError })

	a := newTestAgent(srv.URL, "k1")
	name := a.GeneratePlaylistName(context.Background(), "rainy sunday", []string{"A - B"})
	if name != "Mood: rainy sunday" {
		t.Errorf("name = %q", name)
	}
}

func TestGeneratePlaylistNameStripsQuotes(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) { return `  "Midnight Drive"  `, http.StatusOK })

	a := newTestAgent(srv.URL, "k1")
	name := a.GeneratePlaylistName(context.Background(), "night", []string{"A - B"})
	if name != "Midnight Drive" {
		t.Errorf("name = %q", name)
	}
}

func TestChatCarriesHistory(t *testing.T) {
	var got model.OpenAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hi!"}}]}`)
	}))
	defer srv.Close()

	a := newTestAgent(srv.URL, "k1")
	history := []*model.ChatMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	reply := a.Chat(context.Background(), history, "new question")

	if reply != "hi!" {
		t.Errorf("reply = %q", reply)
	}
	// system prompt + 2 history + current turn
	if len(got.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[3].Content != "new question" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestChatFailureDegradesToApology(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) { return "", http.StatusBadGateway })

	a := newTestAgent(srv.URL, "k1")
	reply := a.Chat(context.Background(), nil, "hello")
	if !strings.HasPrefix(reply, "Sorry") {
		t.Errorf("reply = %q, want apology fallback", reply)
	}
}

func TestGeneratePlaylistEditParsesJSON(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) {
		return "Here you go:\n```json\n" +
			`{"songsToAdd":["Hurt - Johnny Cash"],"songsToRemove":["Happy"],"newDescription":"sadder now"}` +
			"\n```", http.StatusOK
	})

	a := newTestAgent(srv.URL, "k1")
	playlist := model.Playlist{Name: "Mix", Songs: []model.Track{{Title: "Happy", Artist: "Pharrell Williams"}}}
	edit := a.GeneratePlaylistEdit(context.Background(), "make it sadder", playlist)

	if edit == nil {
		t.Fatal("expected parsed edit instructions")
	}
	if len(edit.SongsToAdd) != 1 || edit.SongsToAdd[0] != "Hurt - Johnny Cash" {
		t.Errorf("songsToAdd = %v", edit.SongsToAdd)
	}
	if len(edit.SongsToRemove) != 1 || edit.NewDescription != "sadder now" {
		t.Errorf("edit = %+v", edit)
	}
}

func TestGeneratePlaylistEditWithoutJSONIsNil(t *testing.T) {
	srv := chatServer(t, func(string) (string, int) { return "I cannot help with that.", http.StatusOK })

	a := newTestAgent(srv.URL, "k1")
	if edit := a.GeneratePlaylistEdit(context.Background(), "x", model.Playlist{}); edit != nil {
		t.Errorf("edit = %+v, want nil", edit)
	}
}
