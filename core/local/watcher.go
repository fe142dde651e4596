package local

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// audioExtensions lists the file types the library imports from disk.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// Watcher imports audio files from a directory as local-origin tracks and
// keeps the set current as files appear and disappear.
type Watcher struct {
	dir     string
	baseURL string
	onTrack func(model.Track)

	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	tracks map[string]model.Track // keyed by absolute file path
}

// NewWatcher creates a watcher over dir. Track playback URIs are built
// against baseURL so the audio adapter can probe and stream them. onTrack,
// when non-nil, is invoked for every newly imported track.
func NewWatcher(dir, baseURL string, onTrack func(model.Track)) *Watcher {
	return &Watcher{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		onTrack: onTrack,
		tracks:  make(map[string]model.Track),
	}
}

// Start scans the directory once, then watches it until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create music directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.watcher = watcher

	if err := w.scan(); err != nil {
		watcher.Close()
		return err
	}

	go w.loop(ctx)
	logger.Info("watching local music directory",
		logger.String("dir", w.dir),
		logger.Int("tracks", len(w.Tracks())))
	return nil
}

func (w *Watcher) scan() error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			w.addFile(path)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				w.addFile(event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.removeFile(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("music directory watch error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) addFile(path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if !audioExtensions[ext] {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}

	w.mu.Lock()
	if _, exists := w.tracks[path]; exists {
		w.mu.Unlock()
		return
	}
	track := w.trackFor(path)
	w.tracks[path] = track
	w.mu.Unlock()

	logger.Info("imported local track",
		logger.String("id", track.ID),
		logger.String("title", track.Title))
	if w.onTrack != nil {
		w.onTrack(track)
	}
}

func (w *Watcher) removeFile(path string) {
	w.mu.Lock()
	track, exists := w.tracks[path]
	delete(w.tracks, path)
	w.mu.Unlock()
	if exists {
		logger.Info("local track removed", logger.String("id", track.ID))
	}
}

// trackFor derives a stable track from a file path. The ID hashes the path
// relative to the music directory so re-scans yield the same track.
func (w *Watcher) trackFor(path string) model.Track {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	id := fmt.Sprintf("local_%x", sha1.Sum([]byte(rel)))[:18]

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	title, artist := stem, "Unknown Artist"
	if before, after, found := strings.Cut(stem, " - "); found {
		artist, title = strings.TrimSpace(before), strings.TrimSpace(after)
	}

	return model.Track{
		ID:          id,
		Title:       title,
		Artist:      artist,
		Origin:      model.OriginLocal,
		PlaybackURI: fmt.Sprintf("%s/api/audio/%s", w.baseURL, id),
		AddedAt:     time.Now(),
	}
}

// Tracks returns a snapshot of every imported track.
func (w *Watcher) Tracks() []model.Track {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]model.Track, 0, len(w.tracks))
	for _, t := range w.tracks {
		out = append(out, t)
	}
	return out
}

// TrackPath resolves a local track ID back to its file on disk, for the
// streaming handler.
func (w *Watcher) TrackPath(id string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for path, t := range w.tracks {
		if t.ID == id {
			return path, true
		}
	}
	return "", false
}
