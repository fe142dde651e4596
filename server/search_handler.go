package server

import (
	"net/http"
	"strconv"

	"BuggyFM/model"
)

const defaultSearchLimit = 10

// SearchHandler searches a catalog for tracks. Query parameters:
//   - q: the search query (required)
//   - source: "youtube" (default) or "spotify"
//   - limit: maximum number of results
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	var results []model.Track
	switch r.URL.Query().Get("source") {
	case "", "youtube":
		results = h.youtube.Search(r.Context(), query, limit)
	case "spotify":
		results = h.spotify.SearchTracks(r.Context(), query, limit)
	default:
		http.Error(w, "Unknown source", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, results)
}
