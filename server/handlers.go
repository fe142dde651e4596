package server

import (
	"encoding/json"
	"net/http"

	"BuggyFM/config"
	"BuggyFM/core/assistant"
	"BuggyFM/core/auth"
	"BuggyFM/core/catalog"
	"BuggyFM/core/library"
	"BuggyFM/core/local"
	"BuggyFM/core/player"
	"BuggyFM/repository"
	"BuggyFM/store"
)

// APIHandler carries everything the HTTP surface needs.
type APIHandler struct {
	cfg      *config.Config
	player   *player.Controller
	library  *library.Library
	blobs    *store.BlobStore
	youtube  *catalog.YouTubeClient
	spotify  *catalog.SpotifyClient
	agent    *assistant.Agent
	session  *auth.Session
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
	local    *local.Watcher
}

// NewAPIHandler wires the handler with its collaborators.
func NewAPIHandler(
	cfg *config.Config,
	playerCtl *player.Controller,
	lib *library.Library,
	blobs *store.BlobStore,
	youtube *catalog.YouTubeClient,
	spotify *catalog.SpotifyClient,
	agent *assistant.Agent,
	session *auth.Session,
	userRepo repository.UserRepository,
	chatRepo repository.ChatRepository,
	localLib *local.Watcher,
) *APIHandler {
	return &APIHandler{
		cfg:      cfg,
		player:   playerCtl,
		library:  lib,
		blobs:    blobs,
		youtube:  youtube,
		spotify:  spotify,
		agent:    agent,
		session:  session,
		userRepo: userRepo,
		chatRepo: chatRepo,
		local:    localLib,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
