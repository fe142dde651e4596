package server

import (
	"encoding/json"
	"net/http"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// GetSettingsHandler returns the current settings plus UI flags.
func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	data := h.library.Export()
	writeJSON(w, http.StatusOK, struct {
		model.Settings
		IsDarkMode       bool `json:"isDarkMode"`
		SidebarCollapsed bool `json:"sidebarCollapsed"`
	}{data.Settings, data.IsDarkMode, data.SidebarCollapsed})
}

// UpdateSettingsHandler replaces the settings. The player volume follows
// the stored volume.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var req model.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Volume < 0 || req.Volume > 1 {
		http.Error(w, "Volume must be between 0 and 1", http.StatusBadRequest)
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	h.library.UpdateSettings(req)
	h.player.SetVolume(req.Volume)
	writeJSON(w, http.StatusOK, h.library.Settings())
}

// UpdateUIFlagsHandler sets the theme and sidebar flags.
func (h *APIHandler) UpdateUIFlagsHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsDarkMode       bool `json:"isDarkMode"`
		SidebarCollapsed bool `json:"sidebarCollapsed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.library.SetUIFlags(req.IsDarkMode, req.SidebarCollapsed)
	w.WriteHeader(http.StatusNoContent)
}

// SpotifyStatusHandler reports whether a remote session is connected.
func (h *APIHandler) SpotifyStatusHandler(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()
	writeJSON(w, http.StatusOK, struct {
		Connected bool      `json:"connected"`
		ExpiresAt time.Time `json:"expiresAt,omitempty"`
	}{state.Connected, state.ExpiresAt})
}

// SpotifyConnectHandler stores tokens obtained by the OAuth flow.
func (h *APIHandler) SpotifyConnectHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int    `json:"expiresIn"` // seconds
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AccessToken == "" || req.ExpiresIn <= 0 {
		http.Error(w, "accessToken and expiresIn are required", http.StatusBadRequest)
		return
	}

	h.session.Connect(req.AccessToken, req.RefreshToken, time.Duration(req.ExpiresIn)*time.Second)
	logger.Info("remote session connected")
	h.SpotifyStatusHandler(w, r)
}

// SpotifyDisconnectHandler drops the remote session.
func (h *APIHandler) SpotifyDisconnectHandler(w http.ResponseWriter, r *http.Request) {
	h.session.Disconnect()
	logger.Info("remote session disconnected")
	w.WriteHeader(http.StatusNoContent)
}

// SpotifyRefreshHandler exchanges the refresh token for a new access token.
func (h *APIHandler) SpotifyRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Refresh(r.Context()); err != nil {
		logger.Warn("remote session refresh failed", logger.ErrorField(err))
		http.Error(w, "Failed to refresh session", http.StatusBadGateway)
		return
	}
	h.SpotifyStatusHandler(w, r)
}
