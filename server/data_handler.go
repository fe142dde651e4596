package server

import (
	"io"
	"net/http"

	"BuggyFM/logger"
	"BuggyFM/store"
)

// maxImportBytes bounds an uploaded library blob.
const maxImportBytes = 8 << 20

// ExportDataHandler snapshots the caller's library, persists it, and
// returns the blob as a downloadable text file.
func (h *APIHandler) ExportDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data := h.library.Export()
	if err := h.blobs.Save(r.Context(), userID, data); err != nil {
		logger.Error("failed to persist export", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="buggyfm-export.txt"`)
	io.WriteString(w, store.EncodeAppData(data))
}

// ImportDataHandler replaces the caller's library with an uploaded blob.
// Individually corrupt records are skipped; a foreign format is rejected
// whole.
func (h *APIHandler) ImportDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	data, err := store.DecodeAppData(string(raw))
	if err != nil {
		http.Error(w, "Unrecognized export format", http.StatusBadRequest)
		return
	}

	h.library.Import(data)
	h.player.SetVolume(data.Settings.Volume)

	if err := h.blobs.Save(r.Context(), userID, data); err != nil {
		logger.Error("failed to persist import", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logger.Info("library imported",
		logger.Int64("userId", userID),
		logger.Int("playlists", len(data.Playlists)))
	writeJSON(w, http.StatusOK, data)
}

// LoadDataHandler restores the caller's last persisted library from Redis.
func (h *APIHandler) LoadDataHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, found, err := h.blobs.Load(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load stored library", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "No stored library", http.StatusNotFound)
		return
	}

	h.library.Import(data)
	h.player.SetVolume(data.Settings.Volume)
	writeJSON(w, http.StatusOK, data)
}
