package player

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"BuggyFM/model"
)

type staticCreds struct {
	mu    sync.Mutex
	token string
	ok    bool
}

func (c *staticCreds) AccessToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.ok
}

func (c *staticCreds) set(token string, ok bool) {
	c.mu.Lock()
	c.token = token
	c.ok = ok
	c.mu.Unlock()
}

type remoteAPIStub struct {
	mu        sync.Mutex
	playCalls []string // raw query of each transfer request
	pauses    int
	seeks     []string
	state     remotePlayerState
	reject    bool
}

func (s *remoteAPIStub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.reject || r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/me/player/play":
			s.playCalls = append(s.playCalls, r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/me/player/pause":
			s.pauses++
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/me/player/seek":
			s.seeks = append(s.seeks, r.URL.RawQuery)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPut && r.URL.Path == "/me/player/volume":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet && r.URL.Path == "/me/player":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(s.state)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (s *remoteAPIStub) setState(playing bool, progressMs, durationMs int64) {
	s.mu.Lock()
	s.state.IsPlaying = playing
	s.state.ProgressMs = progressMs
	s.state.Item.DurationMs = durationMs
	s.mu.Unlock()
}

func (s *remoteAPIStub) transferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playCalls)
}

func TestSessionLoadWithoutCredentialIsPermanentError(t *testing.T) {
	rep := &recordingReporter{}
	creds := &staticCreds{}
	a := NewRemoteSessionAdapter(rep, creds, "http://unused", "", time.Hour)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession, RemoteID: "abc"}
	if err := a.Load(context.Background(), track, 1); err == nil {
		t.Fatal("expected load failure without a credential")
	}
	if got := a.State(); got != StateError {
		t.Errorf("state = %v, want error", got)
	}

	// The error is terminal for the cycle; commands stay dead.
	a.SetPlaying(true)
	if got := a.State(); got != StateError {
		t.Errorf("state after play = %v, want still error", got)
	}
}

func TestSessionLoadWithoutRemoteIDFails(t *testing.T) {
	rep := &recordingReporter{}
	creds := &staticCreds{token: "good-token", ok: true}
	a := NewRemoteSessionAdapter(rep, creds, "http://unused", "", time.Hour)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession}
	if err := a.Load(context.Background(), track, 1); err == nil {
		t.Fatal("expected load failure without a remote id")
	}
}

func TestSessionPlayTransfersToDevice(t *testing.T) {
	stub := &remoteAPIStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	rep := &recordingReporter{}
	creds := &staticCreds{token: "good-token", ok: true}
	a := NewRemoteSessionAdapter(rep, creds, srv.URL, "dev-42", time.Hour)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession, RemoteID: "abc", Duration: 30}
	if err := a.Load(context.Background(), track, 1); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Unload()

	a.SetPlaying(true)
	if got := a.State(); got != StatePlaying {
		t.Errorf("state = %v, want playing", got)
	}
	if stub.transferCount() != 1 {
		t.Fatalf("transfer calls = %d, want 1", stub.transferCount())
	}
	stub.mu.Lock()
	query := stub.playCalls[0]
	stub.mu.Unlock()
	if query != "device_id=dev-42" {
		t.Errorf("transfer query = %q, want device_id=dev-42", query)
	}

	// Playing while already playing must not re-transfer.
	a.SetPlaying(true)
	if stub.transferCount() != 1 {
		t.Errorf("transfer calls = %d after idempotent play, want 1", stub.transferCount())
	}

	a.SetPlaying(false)
	stub.mu.Lock()
	pauses := stub.pauses
	stub.mu.Unlock()
	if pauses != 1 {
		t.Errorf("pause calls = %d, want 1", pauses)
	}
}

func TestSessionTransferFailureReportsTrackFailed(t *testing.T) {
	stub := &remoteAPIStub{reject: true}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	rep := &recordingReporter{}
	creds := &staticCreds{token: "good-token", ok: true}
	a := NewRemoteSessionAdapter(rep, creds, srv.URL, "", time.Hour)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession, RemoteID: "abc"}
	if err := a.Load(context.Background(), track, 5); err != nil {
		t.Fatalf("Load: %v", err)
	}

	a.SetPlaying(true)

	rep.mu.Lock()
	failures := append([]uint64(nil), rep.failures...)
	rep.mu.Unlock()
	if len(failures) != 1 || failures[0] != 5 {
		t.Fatalf("failures = %v, want one failure with generation 5", failures)
	}
	if got := a.State(); got != StateError {
		t.Errorf("state = %v, want error", got)
	}
}

func TestSessionPollingReportsAndDetectsEnd(t *testing.T) {
	stub := &remoteAPIStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	rep := &recordingReporter{}
	creds := &staticCreds{token: "good-token", ok: true}
	a := NewRemoteSessionAdapter(rep, creds, srv.URL, "", 5*time.Millisecond)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession, RemoteID: "abc", Duration: 30}
	if err := a.Load(context.Background(), track, 2); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Unload()

	a.SetPlaying(true)
	stub.setState(true, 15000, 30000)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rep.reportCount() > 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	last := rep.lastReport()
	if last.gen != 2 || !last.isPlaying || last.position != 15 || last.duration != 30 {
		t.Fatalf("poll report = %+v, want gen 2 playing at 15/30", last)
	}

	// Track finishes: the platform parks paused at position 0.
	stub.setState(false, 0, 30000)
	for time.Now().Before(deadline) && rep.endedCount() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)

	if got := rep.endedCount(); got != 1 {
		t.Fatalf("TrackEnded fired %d times, want exactly 1", got)
	}
}

func TestSessionCredentialExpiryMidPlaybackIsTerminal(t *testing.T) {
	stub := &remoteAPIStub{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	rep := &recordingReporter{}
	creds := &staticCreds{token: "good-token", ok: true}
	a := NewRemoteSessionAdapter(rep, creds, srv.URL, "", 5*time.Millisecond)

	track := model.Track{ID: "rs-1", Origin: model.OriginRemoteSession, RemoteID: "abc", Duration: 30}
	if err := a.Load(context.Background(), track, 4); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Unload()

	a.SetPlaying(true)
	creds.set("", false)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && a.State() != StateError {
		time.Sleep(5 * time.Millisecond)
	}
	if got := a.State(); got != StateError {
		t.Fatalf("state = %v, want error after credential expiry", got)
	}

	rep.mu.Lock()
	failures := len(rep.failures)
	rep.mu.Unlock()
	if failures != 1 {
		t.Errorf("TrackFailed fired %d times, want exactly 1", failures)
	}
}
