package player

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// videoIDPattern extracts the platform-native media identifier from a watch,
// short or embed URL.
var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// fallbackVideoDuration is assumed when the catalog cannot supply one.
const fallbackVideoDuration = 210

// DurationResolver resolves the authoritative duration of a platform video.
// Implemented by the YouTube catalog client.
type DurationResolver interface {
	VideoDuration(ctx context.Context, videoID string) (float64, error)
}

// EmbeddedVideoAdapter renders tracks hosted on the third-party video
// platform. The platform's controller is initialized exactly once per
// process; playback progress is driven by the shared clock.
type EmbeddedVideoAdapter struct {
	reporter Reporter
	clock    *playbackClock
	gen      atomic.Uint64

	resolverOnce sync.Once
	newResolver  func() DurationResolver
	resolver     DurationResolver

	mu          sync.Mutex
	state       AdapterState
	volume      float64
	lastSeek    float64
	hasSeek     bool
	pendingPlay bool
}

// NewEmbeddedVideoAdapter creates an adapter for the embedded-video origin.
// The resolver factory runs once, on the first Load.
func NewEmbeddedVideoAdapter(reporter Reporter, newResolver func() DurationResolver, reportInterval time.Duration) *EmbeddedVideoAdapter {
	a := &EmbeddedVideoAdapter{
		reporter:    reporter,
		newResolver: newResolver,
		volume:      1,
	}
	a.clock = newPlaybackClock(reportInterval, a.onClockReport, a.onClockEnded)
	return a
}

// ExtractVideoID pulls the platform video id out of a playback URL.
// Returns an empty string when the URL does not match.
func ExtractVideoID(url string) string {
	m := videoIDPattern.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Origin implements Adapter.
func (a *EmbeddedVideoAdapter) Origin() model.OriginTag {
	return model.OriginEmbeddedVideo
}

// Load binds the track's video. A URL the id pattern cannot parse is a load
// failure; a catalog miss only costs the authoritative duration.
func (a *EmbeddedVideoAdapter) Load(ctx context.Context, track model.Track, gen uint64) error {
	a.clock.halt()
	a.gen.Store(gen)

	a.mu.Lock()
	a.state = StateLoading
	a.hasSeek = false
	a.pendingPlay = false
	a.mu.Unlock()

	videoID := ExtractVideoID(track.PlaybackURI)
	if videoID == "" {
		a.setState(StateError)
		return fmt.Errorf("no video id in playback URL %q", track.PlaybackURI)
	}

	a.resolverOnce.Do(func() {
		if a.newResolver != nil {
			a.resolver = a.newResolver()
		}
	})

	duration := track.Duration
	if a.resolver != nil {
		if d, err := a.resolver.VideoDuration(ctx, videoID); err == nil && d > 0 {
			duration = d
		} else if err != nil {
			logger.Warn("video duration lookup failed, using track metadata",
				logger.String("videoId", videoID),
				logger.ErrorField(err))
		}
	}
	if duration <= 0 {
		duration = fallbackVideoDuration
	}

	a.clock.start(duration)

	a.mu.Lock()
	a.state = StateReady
	play := a.pendingPlay
	a.mu.Unlock()

	a.reporter.ReportAdapterState(gen, false, 0, duration)

	if play {
		a.SetPlaying(true)
	}
	return nil
}

// SetPlaying implements Adapter.
func (a *EmbeddedVideoAdapter) SetPlaying(playing bool) {
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

// Seek implements Adapter.
func (a *EmbeddedVideoAdapter) Seek(seconds float64) {
	a.mu.Lock()
	switch a.state {
	case StateUnloaded, StateLoading, StateError:
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

// SetVolume implements Adapter.
func (a *EmbeddedVideoAdapter) SetVolume(volume float64) {
	a.mu.Lock()
	a.volume = volume
	a.mu.Unlock()
}

// State implements Adapter.
func (a *EmbeddedVideoAdapter) State() AdapterState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Unload implements Adapter.
func (a *EmbeddedVideoAdapter) Unload() {
	a.clock.halt()
	a.setState(StateUnloaded)
}

func (a *EmbeddedVideoAdapter) setState(s AdapterState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

func (a *EmbeddedVideoAdapter) onClockReport(isPlaying bool, position, duration float64) {
	a.reporter.ReportAdapterState(a.gen.Load(), isPlaying, position, duration)
}

func (a *EmbeddedVideoAdapter) onClockEnded() {
	a.setState(StateEnded)
	a.reporter.TrackEnded(a.gen.Load())
}
