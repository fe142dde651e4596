package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// Credentials supplies the bearer token for the remote streaming session.
// The adapter only ever reads the token; acquiring or refreshing it is the
// auth session's business.
type Credentials interface {
	AccessToken() (string, bool)
}

// RemoteSessionAdapter drives playback on the authenticated streaming
// platform. Starting a track requires a device-transfer round-trip; transport
// state is read back by polling the platform's player endpoint.
type RemoteSessionAdapter struct {
	reporter     Reporter
	creds        Credentials
	apiURL       string
	deviceID     string
	httpClient   *http.Client
	pollInterval time.Duration
	gen          atomic.Uint64

	mu          sync.Mutex
	state       AdapterState
	remoteID    string
	lastSeek    float64
	hasSeek     bool
	wasPlaying  bool
	endedFired  bool
	failedFired bool
	stop        chan struct{}
}

// remotePlayerState mirrors the platform's player endpoint payload.
type remotePlayerState struct {
	IsPlaying  bool  `json:"is_playing"`
	ProgressMs int64 `json:"progress_ms"`
	Item       struct {
		DurationMs int64 `json:"duration_ms"`
	} `json:"item"`
}

// NewRemoteSessionAdapter creates an adapter for the remote-session origin.
func NewRemoteSessionAdapter(reporter Reporter, creds Credentials, apiURL, deviceID string, pollInterval time.Duration) *RemoteSessionAdapter {
	if pollInterval <= 0 {
		pollInterval = defaultReportInterval
	}
	return &RemoteSessionAdapter{
		reporter:     reporter,
		creds:        creds,
		apiURL:       apiURL,
		deviceID:     deviceID,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		pollInterval: pollInterval,
	}
}

// Origin implements Adapter.
func (a *RemoteSessionAdapter) Origin() model.OriginTag {
	return model.OriginRemoteSession
}

// Load implements Adapter. A missing credential puts the adapter into a
// permanent error state for this load cycle; there is no automatic retry.
func (a *RemoteSessionAdapter) Load(ctx context.Context, track model.Track, gen uint64) error {
	a.haltPolling()
	a.gen.Store(gen)

	a.mu.Lock()
	a.state = StateLoading
	a.remoteID = track.RemoteID
	a.hasSeek = false
	a.wasPlaying = false
	a.endedFired = false
	a.failedFired = false
	a.mu.Unlock()

	if _, ok := a.creds.AccessToken(); !ok {
		a.setState(StateError)
		return fmt.Errorf("remote session credential missing or expired")
	}
	if track.RemoteID == "" {
		a.setState(StateError)
		return fmt.Errorf("track %s has no remote catalog id", track.ID)
	}

	a.mu.Lock()
	a.state = StateReady
	a.stop = make(chan struct{})
	stop := a.stop
	a.mu.Unlock()

	a.reporter.ReportAdapterState(gen, false, 0, track.Duration)

	go a.pollLoop(stop)
	return nil
}

// SetPlaying implements Adapter. Starting playback transfers the session to
// this device; a failed transfer surfaces as a playback error for the track.
func (a *RemoteSessionAdapter) SetPlaying(playing bool) {
	a.mu.Lock()
	if a.state == StateUnloaded || a.state == StateLoading || a.state == StateError {
		a.mu.Unlock()
		return
	}
	starting := playing && a.state != StatePlaying
	if playing {
		a.state = StatePlaying
	} else {
		a.state = StatePaused
	}
	remoteID := a.remoteID
	a.mu.Unlock()

	if playing {
		if starting {
			if err := a.transferPlay(remoteID, 0); err != nil {
				a.fatal(fmt.Errorf("failed to transfer playback: %w", err))
			}
		}
		return
	}
	if err := a.command(http.MethodPut, "/me/player/pause", nil); err != nil {
		logger.Warn("remote pause failed", logger.ErrorField(err))
	}
}

// Seek implements Adapter.
func (a *RemoteSessionAdapter) Seek(seconds float64) {
	a.mu.Lock()
	if a.state == StateUnloaded || a.state == StateLoading || a.state == StateError {
		a.mu.Unlock()
		return
	}
	if a.hasSeek && a.lastSeek == seconds {
		a.mu.Unlock()
		return
	}
	a.lastSeek = seconds
	a.hasSeek = true
	a.mu.Unlock()

	path := fmt.Sprintf("/me/player/seek?position_ms=%d", int64(seconds*1000))
	if err := a.command(http.MethodPut, path, nil); err != nil {
		logger.Warn("remote seek failed", logger.ErrorField(err))
	}
}

// SetVolume implements Adapter.
func (a *RemoteSessionAdapter) SetVolume(volume float64) {
	a.mu.Lock()
	unusable := a.state == StateUnloaded || a.state == StateError
	a.mu.Unlock()
	if unusable {
		return
	}

	path := fmt.Sprintf("/me/player/volume?volume_percent=%d", int(volume*100))
	if err := a.command(http.MethodPut, path, nil); err != nil {
		logger.Warn("remote volume failed", logger.ErrorField(err))
	}
}

// State implements Adapter.
func (a *RemoteSessionAdapter) State() AdapterState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Unload implements Adapter.
func (a *RemoteSessionAdapter) Unload() {
	a.haltPolling()
	a.setState(StateUnloaded)
}

// transferPlay asks the platform to play the track on this device.
func (a *RemoteSessionAdapter) transferPlay(remoteID string, positionMs int64) error {
	body, err := json.Marshal(map[string]interface{}{
		"uris":        []string{"spotify:track:" + remoteID},
		"position_ms": positionMs,
	})
	if err != nil {
		return err
	}
	path := "/me/player/play"
	if a.deviceID != "" {
		path = fmt.Sprintf("/me/player/play?device_id=%s", a.deviceID)
	}
	return a.command(http.MethodPut, path, body)
}

// command issues an authenticated player command.
func (a *RemoteSessionAdapter) command(method, path string, body []byte) error {
	token, ok := a.creds.AccessToken()
	if !ok {
		err := fmt.Errorf("remote session credential missing or expired")
		a.fatal(err)
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, a.apiURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err := fmt.Errorf("remote session rejected credential: status %d", resp.StatusCode)
		a.fatal(err)
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("remote player command %s returned status %d", path, resp.StatusCode)
	}
	return nil
}

// pollLoop reads the platform transport state on a fixed cadence.
func (a *RemoteSessionAdapter) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.poll()
		}
	}
}

func (a *RemoteSessionAdapter) poll() {
	token, ok := a.creds.AccessToken()
	if !ok {
		a.fatal(fmt.Errorf("remote session credential missing or expired"))
		return
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.apiURL+"/me/player", nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		logger.Warn("remote player poll failed", logger.ErrorField(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		a.fatal(fmt.Errorf("remote session rejected credential: status %d", resp.StatusCode))
		return
	}
	if resp.StatusCode == http.StatusNoContent {
		return // nothing playing anywhere
	}
	if resp.StatusCode >= 400 {
		return
	}

	var rs remotePlayerState
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		logger.Warn("remote player state decode failed", logger.ErrorField(err))
		return
	}

	gen := a.gen.Load()
	position := float64(rs.ProgressMs) / 1000
	duration := float64(rs.Item.DurationMs) / 1000

	// The platform parks the session at position 0, paused, once the track
	// finishes; that is the only end-of-track signal it gives.
	a.mu.Lock()
	ended := rs.ProgressMs == 0 && !rs.IsPlaying && a.wasPlaying && !a.endedFired
	if ended {
		a.endedFired = true
		a.state = StateEnded
	}
	a.wasPlaying = rs.IsPlaying
	a.mu.Unlock()

	a.reporter.ReportAdapterState(gen, rs.IsPlaying, position, duration)
	if ended {
		a.reporter.TrackEnded(gen)
	}
}

// fatal moves the adapter into the terminal error state and reports the
// failure at most once per load cycle.
func (a *RemoteSessionAdapter) fatal(err error) {
	a.mu.Lock()
	already := a.failedFired
	a.failedFired = true
	a.state = StateError
	a.mu.Unlock()

	a.haltPolling()

	if !already {
		logger.Error("remote session adapter failed", logger.ErrorField(err))
		a.reporter.TrackFailed(a.gen.Load(), err)
	}
}

func (a *RemoteSessionAdapter) haltPolling() {
	a.mu.Lock()
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.mu.Unlock()
}

func (a *RemoteSessionAdapter) setState(s AdapterState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}
