package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"BuggyFM/core/catalog"
	"BuggyFM/core/library"
	"BuggyFM/logger"
	"BuggyFM/model"
	"BuggyFM/storage"
)

// GetPlaylistsHandler lists every playlist.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.Playlists())
}

// CreatePlaylistHandler creates an empty playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Playlist name is required", http.StatusBadRequest)
		return
	}
	playlist := h.library.CreatePlaylist(req.Name, req.Description, false)
	writeJSON(w, http.StatusCreated, playlist)
}

// GetPlaylistHandler returns a single playlist.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.library.Playlist(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// UpdatePlaylistHandler renames a playlist and/or replaces its description.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			http.Error(w, "Playlist name cannot be empty", http.StatusBadRequest)
			return
		}
		if err := h.library.RenamePlaylist(id, *req.Name); err != nil {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
	}
	if req.Description != nil {
		if err := h.library.SetDescription(id, *req.Description); err != nil {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
	}

	playlist, err := h.library.Playlist(id)
	if err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// DeletePlaylistHandler removes a playlist.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeletePlaylist(mux.Vars(r)["id"]); err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSongHandler appends a track to a playlist. Duplicate track IDs are
// silently ignored.
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var track model.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if track.ID == "" {
		http.Error(w, "Track ID is required", http.StatusBadRequest)
		return
	}
	if err := h.library.AddSong(id, track); err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	playlist, _ := h.library.Playlist(id)
	writeJSON(w, http.StatusOK, playlist)
}

// RemoveSongHandler removes a track from a playlist.
func (h *APIHandler) RemoveSongHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.library.RemoveSong(vars["id"], vars["track_id"]); err != nil {
		if errors.Is(err, library.ErrPlaylistNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Track not in playlist", http.StatusNotFound)
		return
	}
	playlist, _ := h.library.Playlist(vars["id"])
	writeJSON(w, http.StatusOK, playlist)
}

// PlayPlaylistHandler loads a playlist into the queue and starts it.
func (h *APIHandler) PlayPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	queue, err := h.library.Queue(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	if len(queue) == 0 {
		http.Error(w, "Playlist is empty", http.StatusBadRequest)
		return
	}
	h.player.Play(queue[0], queue)
	h.library.AddRecent(queue[0])
	writeJSON(w, http.StatusOK, h.player.State())
}

// UploadCoverHandler stores a cover image for a playlist.
// Expected multipart form field: coverFile.
func (h *APIHandler) UploadCoverHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.library.Playlist(id); err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("coverFile")
	if err != nil {
		http.Error(w, "Missing 'coverFile' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		http.Error(w, "Cover must be an image", http.StatusBadRequest)
		return
	}

	objectName, err := storage.UploadCover(r.Context(), file, header.Size, header.Filename, contentType)
	if err != nil {
		logger.Error("cover upload failed", logger.ErrorField(err))
		http.Error(w, "Failed to store cover", http.StatusInternalServerError)
		return
	}

	coverURL := "/storage/" + objectName
	if err := h.library.SetCover(id, coverURL); err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	playlist, _ := h.library.Playlist(id)
	writeJSON(w, http.StatusOK, playlist)
}

// GeneratePlaylistRequest asks the assistant to build a playlist.
type GeneratePlaylistRequest struct {
	Mood        string `json:"mood"`
	Preferences string `json:"preferences"`
	Source      string `json:"source"` // "youtube" (default) or "spotify"
}

// GeneratePlaylistHandler asks the assistant for songs matching a mood and
// resolves them against the chosen catalog.
func (h *APIHandler) GeneratePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Mood) == "" {
		http.Error(w, "Mood is required", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "youtube"
	}

	songs := h.agent.GeneratePlaylist(r.Context(), req.Mood, req.Preferences, req.Source)
	if len(songs) == 0 {
		http.Error(w, "Assistant could not generate a playlist", http.StatusBadGateway)
		return
	}
	name := h.agent.GeneratePlaylistName(r.Context(), req.Mood, songs)

	playlist := h.library.CreatePlaylist(name, "Generated for mood: "+req.Mood, true)
	added := 0
	for _, entry := range songs {
		track, ok := h.resolveSong(r, entry, req.Source)
		if !ok {
			logger.Warn("could not resolve generated song", logger.String("entry", entry))
			continue
		}
		if err := h.library.AddSong(playlist.ID, track); err == nil {
			added++
		}
	}
	if added == 0 {
		h.library.DeletePlaylist(playlist.ID)
		http.Error(w, "No generated songs could be resolved", http.StatusBadGateway)
		return
	}

	logger.Info("generated playlist",
		logger.String("id", playlist.ID),
		logger.Int("songs", added))
	result, _ := h.library.Playlist(playlist.ID)
	writeJSON(w, http.StatusCreated, result)
}

// resolveSong turns a "Title - Artist" entry into a playable track.
func (h *APIHandler) resolveSong(r *http.Request, entry, source string) (model.Track, bool) {
	title, artist := entry, ""
	if before, after, found := strings.Cut(entry, " - "); found {
		title, artist = strings.TrimSpace(before), strings.TrimSpace(after)
	}

	if source == "spotify" {
		if track, ok := h.spotify.FindTrack(r.Context(), title, artist); ok {
			return track, true
		}
		// Fall through to YouTube when the track is not on Spotify.
	}

	results := h.youtube.Search(r.Context(), entry, 1)
	if len(results) == 0 {
		return model.Track{}, false
	}
	return results[0], true
}

// EditPlaylistHandler applies an assistant-described edit to a playlist.
func (h *APIHandler) EditPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	playlist, err := h.library.Playlist(id)
	if err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}

	var req struct {
		Request string `json:"request"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Request) == "" {
		http.Error(w, "Edit request is required", http.StatusBadRequest)
		return
	}

	edit := h.agent.GeneratePlaylistEdit(r.Context(), req.Request, playlist)
	if edit == nil {
		http.Error(w, "Assistant could not interpret the edit", http.StatusBadGateway)
		return
	}

	for _, entry := range edit.SongsToAdd {
		if track, ok := h.resolveSong(r, entry, "youtube"); ok {
			h.library.AddSong(id, track)
		}
	}
	for _, needle := range edit.SongsToRemove {
		for _, song := range playlist.Songs {
			if songMatches(song, needle) {
				h.library.RemoveSong(id, song.ID)
			}
		}
	}
	if edit.NewDescription != "" {
		h.library.SetDescription(id, edit.NewDescription)
	}

	result, err := h.library.Playlist(id)
	if err != nil {
		http.Error(w, "Playlist not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// songMatches reports whether a removal hint refers to the given song.
// Matching is a case-insensitive substring test on title and artist.
func songMatches(song model.Track, needle string) bool {
	n := strings.ToLower(needle)
	return strings.Contains(strings.ToLower(song.Title), n) ||
		strings.Contains(strings.ToLower(song.Artist), n) ||
		strings.Contains(strings.ToLower(song.Title+" - "+song.Artist), n)
}

// ImportPlaylistHandler imports a public playlist by URL from YouTube or
// Spotify.
func (h *APIHandler) ImportPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var tracks []model.Track
	var err error
	switch {
	case catalog.ExtractSpotifyPlaylistID(req.URL) != "":
		tracks, err = h.spotify.PlaylistTracks(r.Context(), catalog.ExtractSpotifyPlaylistID(req.URL))
	case catalog.ExtractPlaylistID(req.URL) != "":
		tracks, err = h.youtube.PlaylistItems(r.Context(), catalog.ExtractPlaylistID(req.URL))
	default:
		http.Error(w, "Unrecognized playlist URL", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("playlist import failed", logger.ErrorField(err))
		http.Error(w, "Failed to fetch playlist", http.StatusBadGateway)
		return
	}
	if len(tracks) == 0 {
		http.Error(w, "Playlist has no importable tracks", http.StatusBadGateway)
		return
	}

	name := req.Name
	if name == "" {
		name = "Imported Playlist"
	}
	playlist := h.library.CreatePlaylist(name, "Imported from "+req.URL, false)
	for _, track := range tracks {
		h.library.AddSong(playlist.ID, track)
	}

	result, _ := h.library.Playlist(playlist.ID)
	writeJSON(w, http.StatusCreated, result)
}
