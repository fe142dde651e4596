package server

import (
	"encoding/json"
	"net/http"

	"BuggyFM/model"
)

// GetFavoritesHandler lists the favorite tracks.
func (h *APIHandler) GetFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.Favorites())
}

// ToggleFavoriteHandler adds or removes a track from favorites and reports
// the resulting membership.
func (h *APIHandler) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if track.ID == "" {
		http.Error(w, "Track ID is required", http.StatusBadRequest)
		return
	}
	favorited := h.library.ToggleFavorite(track)
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

// GetRecentsHandler lists recently played tracks, most recent first.
func (h *APIHandler) GetRecentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.Recents())
}

// GetLocalTracksHandler lists tracks imported from the watched music
// directory.
func (h *APIHandler) GetLocalTracksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.local.Tracks())
}
