package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/minio/minio-go/v7"

	"BuggyFM/logger"
	"BuggyFM/storage"
)

// LocalAudioHandler streams an imported local track from disk. Range
// requests work through http.ServeFile, which the audio adapter's probe
// relies on.
func (h *APIHandler) LocalAudioHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	path, ok := h.local.TrackPath(id)
	if !ok {
		http.Error(w, "Track not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

// StorageHandler proxies stored objects (covers, uploaded audio) out of
// MinIO.
func (h *APIHandler) StorageHandler(w http.ResponseWriter, r *http.Request) {
	objectName := strings.TrimPrefix(r.URL.Path, "/storage/")
	if objectName == "" || strings.Contains(objectName, "..") {
		http.Error(w, "Invalid object path", http.StatusBadRequest)
		return
	}

	client := storage.GetMinioClient()
	if client == nil {
		http.Error(w, "Object storage not available", http.StatusServiceUnavailable)
		return
	}

	object, err := client.GetObject(r.Context(), h.cfg.MinioBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("failed to open stored object", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer object.Close()

	stat, err := object.Stat()
	if err != nil {
		http.Error(w, "Object not found", http.StatusNotFound)
		return
	}

	if stat.ContentType != "" {
		w.Header().Set("Content-Type", stat.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, objectName, stat.LastModified, object)
}
