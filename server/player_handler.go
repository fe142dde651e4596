package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"BuggyFM/core/library"
	"BuggyFM/model"
)

// PlayerStateHandler returns the current playback state snapshot.
func (h *APIHandler) PlayerStateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.State())
}

// PlayRequest starts playback of a track. The queue can be given inline or
// referenced by playlist ID; with neither, the track plays on its own.
type PlayRequest struct {
	Track      model.Track   `json:"track"`
	Queue      []model.Track `json:"queue,omitempty"`
	PlaylistID string        `json:"playlistId,omitempty"`
}

// PlayHandler starts playback.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Track.ID == "" {
		http.Error(w, "Track is required", http.StatusBadRequest)
		return
	}

	queue := req.Queue
	if req.PlaylistID != "" {
		var err error
		queue, err = h.library.Queue(req.PlaylistID)
		if err != nil {
			if errors.Is(err, library.ErrPlaylistNotFound) {
				http.Error(w, "Playlist not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.player.Play(req.Track, queue)
	h.library.AddRecent(req.Track)
	writeJSON(w, http.StatusOK, h.player.State())
}

// TogglePlayPauseHandler flips between playing and paused.
func (h *APIHandler) TogglePlayPauseHandler(w http.ResponseWriter, r *http.Request) {
	h.player.TogglePlayPause()
	writeJSON(w, http.StatusOK, h.player.State())
}

// NextHandler advances to the next track in the queue.
func (h *APIHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	h.player.Next()
	writeJSON(w, http.StatusOK, h.player.State())
}

// PreviousHandler steps back to the previous track.
func (h *APIHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	h.player.Previous()
	writeJSON(w, http.StatusOK, h.player.State())
}

// SeekHandler jumps to a position in the current track.
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.player.Seek(req.Position)
	writeJSON(w, http.StatusOK, h.player.State())
}

// VolumeHandler sets the playback volume.
func (h *APIHandler) VolumeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.player.SetVolume(req.Volume)

	settings := h.library.Settings()
	settings.Volume = h.player.State().Volume
	h.library.UpdateSettings(settings)

	writeJSON(w, http.StatusOK, h.player.State())
}

// ToggleShuffleHandler flips shuffle mode.
func (h *APIHandler) ToggleShuffleHandler(w http.ResponseWriter, r *http.Request) {
	h.player.ToggleShuffle()
	writeJSON(w, http.StatusOK, h.player.State())
}

// ToggleRepeatHandler cycles the repeat mode off -> one -> all -> off.
func (h *APIHandler) ToggleRepeatHandler(w http.ResponseWriter, r *http.Request) {
	h.player.ToggleRepeat()
	writeJSON(w, http.StatusOK, h.player.State())
}
