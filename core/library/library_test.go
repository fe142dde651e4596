package library

import (
	"errors"
	"fmt"
	"testing"

	"BuggyFM/model"
)

func track(i int) model.Track {
	return model.Track{
		ID:     fmt.Sprintf("local-%d", i),
		Title:  fmt.Sprintf("Track %d", i),
		Origin: model.OriginLocal,
	}
}

func TestCreateAndLookupPlaylist(t *testing.T) {
	l := New()

	created := l.CreatePlaylist("Road Trip", "for the car", false)
	if created.ID == "" {
		t.Fatal("playlist id must be assigned")
	}

	got, err := l.Playlist(created.ID)
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if got.Name != "Road Trip" || got.Description != "for the car" {
		t.Errorf("playlist = %+v", got)
	}

	if _, err := l.Playlist("nope"); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("err = %v, want ErrPlaylistNotFound", err)
	}
}

func TestPlaylistRenameAndDescription(t *testing.T) {
	l := New()
	p := l.CreatePlaylist("Old", "", false)

	if err := l.RenamePlaylist(p.ID, "New"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := l.SetDescription(p.ID, "fresh"); err != nil {
		t.Fatalf("SetDescription: %v", err)
	}
	if err := l.SetCover(p.ID, "http://covers/x.jpg"); err != nil {
		t.Fatalf("SetCover: %v", err)
	}

	got, _ := l.Playlist(p.ID)
	if got.Name != "New" || got.Description != "fresh" || got.CoverImage != "http://covers/x.jpg" {
		t.Errorf("playlist = %+v", got)
	}
	if !got.UpdatedAt.After(p.UpdatedAt) && !got.UpdatedAt.Equal(p.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestAddSongDedupesByID(t *testing.T) {
	l := New()
	p := l.CreatePlaylist("Mix", "", false)

	if err := l.AddSong(p.ID, track(1)); err != nil {
		t.Fatalf("AddSong: %v", err)
	}
	if err := l.AddSong(p.ID, track(1)); err != nil {
		t.Fatalf("AddSong duplicate: %v", err)
	}
	if err := l.AddSong(p.ID, track(2)); err != nil {
		t.Fatalf("AddSong: %v", err)
	}

	got, _ := l.Playlist(p.ID)
	if len(got.Songs) != 2 {
		t.Errorf("songs = %d, want 2 (duplicate dropped)", len(got.Songs))
	}
}

func TestRemoveSong(t *testing.T) {
	l := New()
	p := l.CreatePlaylist("Mix", "", false)
	l.AddSong(p.ID, track(1))
	l.AddSong(p.ID, track(2))
	l.AddSong(p.ID, track(3))

	if err := l.RemoveSong(p.ID, "local-2"); err != nil {
		t.Fatalf("RemoveSong: %v", err)
	}

	got, _ := l.Playlist(p.ID)
	if len(got.Songs) != 2 || got.Songs[0].ID != "local-1" || got.Songs[1].ID != "local-3" {
		t.Errorf("songs = %+v", got.Songs)
	}
}

func TestDeletePlaylist(t *testing.T) {
	l := New()
	a := l.CreatePlaylist("A", "", false)
	b := l.CreatePlaylist("B", "", false)

	if err := l.DeletePlaylist(a.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if err := l.DeletePlaylist(a.ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("second delete err = %v, want ErrPlaylistNotFound", err)
	}

	all := l.Playlists()
	if len(all) != 1 || all[0].ID != b.ID {
		t.Errorf("playlists = %+v, want only B", all)
	}
}

func TestQueueIsIsolatedFromPlaylist(t *testing.T) {
	l := New()
	p := l.CreatePlaylist("Mix", "", false)
	l.AddSong(p.ID, track(1))
	l.AddSong(p.ID, track(2))

	queue, err := l.Queue(p.ID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}

	// Reordering or truncating the queue must not leak into the playlist.
	queue[0], queue[1] = queue[1], queue[0]
	queue[0].Title = "mutated"

	got, _ := l.Playlist(p.ID)
	if got.Songs[0].ID != "local-1" || got.Songs[0].Title == "mutated" {
		t.Errorf("playlist changed through its queue copy: %+v", got.Songs)
	}

	// Removing a song later must not change an already-issued queue.
	l.RemoveSong(p.ID, "local-1")
	if len(queue) != 2 {
		t.Errorf("queue = %d entries, want 2", len(queue))
	}
}

func TestToggleFavorite(t *testing.T) {
	l := New()

	if !l.ToggleFavorite(track(1)) {
		t.Error("first toggle should favorite")
	}
	if !l.IsFavorite("local-1") {
		t.Error("expected favorited")
	}
	if l.ToggleFavorite(track(1)) {
		t.Error("second toggle should unfavorite")
	}
	if l.IsFavorite("local-1") {
		t.Error("expected unfavorited")
	}
}

func TestRecentsDedupeAndOrder(t *testing.T) {
	l := New()

	l.AddRecent(track(1))
	l.AddRecent(track(2))
	l.AddRecent(track(3))
	l.AddRecent(track(1)) // replay: moves to front, no duplicate

	got := l.Recents()
	if len(got) != 3 {
		t.Fatalf("recents = %d entries, want 3", len(got))
	}
	want := []string{"local-1", "local-3", "local-2"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("recents[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestRecentsCapAtFifty(t *testing.T) {
	l := New()

	for i := 0; i < 60; i++ {
		l.AddRecent(track(i))
	}

	got := l.Recents()
	if len(got) != 50 {
		t.Fatalf("recents = %d entries, want 50", len(got))
	}
	if got[0].ID != "local-59" {
		t.Errorf("head = %s, want local-59", got[0].ID)
	}
	if got[49].ID != "local-10" {
		t.Errorf("tail = %s, want local-10", got[49].ID)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	l := New()
	p := l.CreatePlaylist("Mix", "desc", true)
	l.AddSong(p.ID, track(1))
	l.ToggleFavorite(track(2))
	l.AddRecent(track(3))
	l.SetUIFlags(true, false)
	settings := l.Settings()
	settings.Volume = 0.5
	l.UpdateSettings(settings)

	data := l.Export()

	restored := New()
	restored.Import(data)

	got := restored.Export()
	if len(got.Playlists) != 1 || got.Playlists[0].Name != "Mix" || !got.Playlists[0].IsGenerated {
		t.Errorf("playlists = %+v", got.Playlists)
	}
	if len(got.Favorites) != 1 || got.Favorites[0].ID != "local-2" {
		t.Errorf("favorites = %+v", got.Favorites)
	}
	if len(got.RecentSongs) != 1 || got.RecentSongs[0].ID != "local-3" {
		t.Errorf("recents = %+v", got.RecentSongs)
	}
	if got.Settings.Volume != 0.5 {
		t.Errorf("settings = %+v", got.Settings)
	}
	if !got.IsDarkMode {
		t.Error("dark mode flag lost")
	}
}
