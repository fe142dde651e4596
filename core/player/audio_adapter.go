package player

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// DirectAudioAdapter renders locally hosted files and short preview clips
// through a plain HTTP audio source. The renderer exposes no transport
// readback, so a playback clock stands in for its time updates.
type DirectAudioAdapter struct {
	reporter   Reporter
	httpClient *http.Client
	clock      *playbackClock
	gen        atomic.Uint64

	mu          sync.Mutex
	state       AdapterState
	volume      float64
	lastSeek    float64
	hasSeek     bool
	pendingPlay bool
	pendingSeek float64
	hasPending  bool
}

// NewDirectAudioAdapter creates an adapter for the local origin. A zero
// reportInterval selects the default one-second cadence.
func NewDirectAudioAdapter(reporter Reporter, reportInterval time.Duration) *DirectAudioAdapter {
	a := &DirectAudioAdapter{
		reporter:   reporter,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		volume:     1,
	}
	a.clock = newPlaybackClock(reportInterval, a.onClockReport, a.onClockEnded)
	return a
}

// Origin implements Adapter.
func (a *DirectAudioAdapter) Origin() model.OriginTag {
	return model.OriginLocal
}

// Load binds the track's media URL. An unreachable URL or a non-audio
// content type is a load failure.
func (a *DirectAudioAdapter) Load(ctx context.Context, track model.Track, gen uint64) error {
	a.clock.halt()
	a.gen.Store(gen)

	a.mu.Lock()
	a.state = StateLoading
	a.hasSeek = false
	a.hasPending = false
	a.pendingPlay = false
	a.mu.Unlock()

	uri := track.PlaybackURI
	if uri == "" {
		uri = track.PreviewURL
	}
	if uri == "" {
		a.setState(StateError)
		return fmt.Errorf("track %s has no playable media URL", track.ID)
	}

	if err := a.probe(ctx, uri); err != nil {
		a.setState(StateError)
		return fmt.Errorf("failed to load media for track %s: %w", track.ID, err)
	}

	a.clock.start(track.Duration)

	a.mu.Lock()
	a.state = StateReady
	play := a.pendingPlay
	seek := a.pendingSeek
	hasSeek := a.hasPending
	a.mu.Unlock()

	a.reporter.ReportAdapterState(gen, false, 0, track.Duration)

	if hasSeek {
		a.Seek(seek)
	}
	if play {
		a.SetPlaying(true)
	}
	return nil
}

// probe checks that the URL serves something an audio element could decode.
func (a *DirectAudioAdapter) probe(ctx context.Context, uri string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("media URL returned status %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "audio/") && !strings.HasPrefix(ct, "application/octet-stream") {
		return fmt.Errorf("unsupported media format %q", ct)
	}
	return nil
}

// SetPlaying implements Adapter. Issued before readiness it is remembered
// and applied once the media loads.
func (a *DirectAudioAdapter) SetPlaying(playing bool) {
	a.mu.Lock()
	switch a.state {
	case StateUnloaded, StateError:
		a.mu.Unlock()
		return
	case StateLoading:
		a.pendingPlay = playing
		a.mu.Unlock()
		return
	}
	if playing {
		a.state = StatePlaying
	} else {
		a.state = StatePaused
	}
	a.mu.Unlock()

	a.clock.setPlaying(playing)
}

// Seek implements Adapter. Seeks identical to the last applied one are
// dropped so the polling reporter cannot echo them back forever.
func (a *DirectAudioAdapter) Seek(seconds float64) {
	a.mu.Lock()
	switch a.state {
	case StateUnloaded, StateError:
		a.mu.Unlock()
		return
	case StateLoading:
		a.pendingSeek = seconds
		a.hasPending = true
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

	a.clock.seek(seconds)
}

// SetVolume implements Adapter. The audio source applies volume directly;
// there is nothing to forward beyond remembering it.
func (a *DirectAudioAdapter) SetVolume(volume float64) {
	a.mu.Lock()
	a.volume = volume
	a.mu.Unlock()
}

// State implements Adapter.
func (a *DirectAudioAdapter) State() AdapterState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Unload implements Adapter.
func (a *DirectAudioAdapter) Unload() {
	a.clock.halt()
	a.setState(StateUnloaded)
}

func (a *DirectAudioAdapter) setState(s AdapterState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *DirectAudioAdapter) onClockReport(isPlaying bool, position, duration float64) {
	a.reporter.ReportAdapterState(a.gen.Load(), isPlaying, position, duration)
}

func (a *DirectAudioAdapter) onClockEnded() {
	a.setState(StateEnded)
	gen := a.gen.Load()
	logger.Debug("audio media ended", logger.Int64("generation", int64(gen)))
	a.reporter.TrackEnded(gen)
}
