package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"BuggyFM/logger"
)

// expiryMargin treats a token as invalid this long before its actual expiry,
// so requests in flight do not race the cutoff.
const expiryMargin = 2 * time.Minute

// SessionState is the observable snapshot of the streaming-platform session.
type SessionState struct {
	Connected bool      `json:"connected"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Session holds the streaming platform credential for one app instance and
// notifies observers when it changes. It is an explicit constructed
// dependency; collaborators receive it, they never reach for a global.
type Session struct {
	clientID     string
	clientSecret string
	accountsURL  string
	httpClient   *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	observers    []func(SessionState)
}

// NewSession creates a disconnected session. accountsURL is the platform's
// token endpoint base (the /api/token path is appended).
func NewSession(clientID, clientSecret, accountsURL string) *Session {
	return &Session{
		clientID:     clientID,
		clientSecret: clientSecret,
		accountsURL:  strings.TrimSuffix(accountsURL, "/"),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Observe registers a callback for session state changes.
func (s *Session) Observe(fn func(SessionState)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	state := s.stateLocked()
	obs := append(([]func(SessionState))(nil), s.observers...)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(state)
	}
}

func (s *Session) stateLocked() SessionState {
	return SessionState{
		Connected: s.accessToken != "" && time.Now().Before(s.expiresAt.Add(-expiryMargin)),
		ExpiresAt: s.expiresAt,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// AccessToken returns the bearer token if the session holds a valid one.
func (s *Session) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" || !time.Now().Before(s.expiresAt.Add(-expiryMargin)) {
		return "", false
	}
	return s.accessToken, true
}

// Connect installs an externally obtained credential.
func (s *Session) Connect(accessToken, refreshToken string, expiresIn time.Duration) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.expiresAt = time.Now().Add(expiresIn)
	s.mu.Unlock()

	logger.Info("streaming session connected",
		logger.Duration("expiresIn", expiresIn))
	s.notify()
}

// Disconnect drops the credential.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	logger.Info("streaming session disconnected")
	s.notify()
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges the refresh token for a fresh access token. A refresh
// failure disconnects the session.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refreshToken
	s.mu.Unlock()
	if refresh == "" {
		s.Disconnect()
		return fmt.Errorf("no refresh token held")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.accountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.Disconnect()
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.Disconnect()
		return fmt.Errorf("token refresh rejected: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		s.Disconnect()
		return fmt.Errorf("token refresh decode: %w", err)
	}

	s.mu.Lock()
	s.accessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		s.refreshToken = tr.RefreshToken
	}
	s.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	s.mu.Unlock()

	logger.Info("streaming session token refreshed")
	s.notify()
	return nil
}
