package player

import (
	"context"

	"BuggyFM/model"
)

// AdapterState tracks one load cycle of a media source adapter.
// Error is terminal for the cycle; a fresh Load is required to recover.
type AdapterState int

const (
	// StateUnloaded indicates no media is bound.
	StateUnloaded AdapterState = iota

	// StateLoading indicates media is bound but not yet confirmed playable.
	StateLoading

	// StateReady indicates the media is loaded and reports an authoritative duration.
	StateReady

	// StatePlaying indicates playback is progressing.
	StatePlaying

	// StatePaused indicates media is loaded but playback is suspended.
	StatePaused

	// StateEnded indicates playback reached the natural end of the media.
	StateEnded

	// StateError indicates the load cycle failed.
	StateError
)

// String returns a human-readable label for the adapter state.
func (s AdapterState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Reporter receives asynchronous adapter callbacks. The generation value is
// the one handed to Load; the controller discards callbacks carrying a
// generation it no longer considers active.
type Reporter interface {
	// ReportAdapterState delivers a transport snapshot (last-report-wins).
	ReportAdapterState(gen uint64, isPlaying bool, position, duration float64)

	// TrackEnded signals the natural end of the loaded media. Fired exactly
	// once per load cycle.
	TrackEnded(gen uint64)

	// TrackFailed signals that the adapter cannot play the loaded media.
	TrackFailed(gen uint64, err error)
}

// Adapter normalizes one external playback technology into a common
// load/command/report contract. At most one adapter is active at a time.
type Adapter interface {
	// Origin returns the track origin this adapter renders.
	Origin() model.OriginTag

	// Load tears down any previous media, binds the track and brings the
	// adapter to Ready. Commands issued before Ready are remembered and
	// applied on readiness rather than erroring.
	Load(ctx context.Context, track model.Track, gen uint64) error

	// SetPlaying starts or suspends playback. Idempotent: playing while
	// already playing or pausing while paused is not an error.
	SetPlaying(playing bool)

	// Seek moves the playhead. A seek identical to the last applied one is
	// ignored to avoid feedback loops from the polling reporter.
	Seek(seconds float64)

	// SetVolume applies a volume in [0,1].
	SetVolume(volume float64)

	// State returns the current load-cycle state.
	State() AdapterState

	// Unload detaches the media and stops reporting.
	Unload()
}
