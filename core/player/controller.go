package player

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"BuggyFM/logger"
	"BuggyFM/model"
)

// Controller owns the playback state machine. All mutations funnel through
// it; adapters only ever talk back via the Reporter callbacks, tagged with
// the load generation they belong to.
//
// Locking rule: the mutex guards the state struct only. Adapter calls and
// subscriber notifications always happen with the mutex released.
type Controller struct {
	mu       sync.Mutex
	state    model.PlayerState
	adapters map[model.OriginTag]Adapter
	active   Adapter
	gen      uint64
	failures int

	randIndex   func(n int) int
	subscribers map[int]func(model.PlayerState)
	nextSubID   int
}

// NewController wires the given adapters into a controller. Each origin may
// appear at most once; a later adapter for the same origin wins.
func NewController(adapters ...Adapter) *Controller {
	c := &Controller{
		adapters:    make(map[model.OriginTag]Adapter),
		subscribers: make(map[int]func(model.PlayerState)),
		randIndex:   rand.Intn,
		state: model.PlayerState{
			Volume: 0.7,
			Repeat: model.RepeatOff,
			Queue:  []model.Track{},
		},
	}
	for _, a := range adapters {
		c.adapters[a.Origin()] = a
	}
	return c
}

// RegisterAdapter adds an adapter after construction, for wiring orders
// where adapters need the controller as their reporter.
func (c *Controller) RegisterAdapter(a Adapter) {
	c.mu.Lock()
	c.adapters[a.Origin()] = a
	c.mu.Unlock()
}

// Subscribe registers a callback invoked with a state snapshot after every
// change. Callbacks run synchronously on the mutating goroutine. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(model.PlayerState)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// State returns a snapshot of the player state. The queue is copied so the
// caller cannot alias the controller's backing array.
func (c *Controller) State() model.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() model.PlayerState {
	s := c.state
	s.Queue = append([]model.Track(nil), c.state.Queue...)
	if c.state.CurrentTrack != nil {
		t := *c.state.CurrentTrack
		s.CurrentTrack = &t
	}
	return s
}

func (c *Controller) notify(s model.PlayerState) {
	c.mu.Lock()
	subs := make([]func(model.PlayerState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

// Play starts the given track. An empty queue plays the track on its own;
// otherwise the queue replaces the current one and the index points at the
// track's position in it (or 0 when the track is not a member).
func (c *Controller) Play(track model.Track, queue []model.Track) {
	if len(queue) == 0 {
		queue = []model.Track{track}
	}
	index := 0
	for i, t := range queue {
		if t.ID == track.ID {
			index = i
			break
		}
	}

	c.mu.Lock()
	c.state.Queue = append([]model.Track(nil), queue...)
	c.state.CurrentIndex = index
	c.failures = 0
	c.mu.Unlock()

	c.startTrack(track)
}

// TogglePlayPause flips the transport. With nothing loaded it is a no-op.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	if c.state.CurrentTrack == nil {
		c.mu.Unlock()
		return
	}
	c.state.IsPlaying = !c.state.IsPlaying
	playing := c.state.IsPlaying
	adapter := c.active
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if adapter != nil {
		adapter.SetPlaying(playing)
	}
	c.notify(snap)
}

// Next skips forward. Shuffle picks a uniformly random queue position, the
// current one included; repeat-one restarts the current track; repeat-all
// wraps past the end; otherwise the last track is a wall.
func (c *Controller) Next() {
	c.mu.Lock()
	n := len(c.state.Queue)
	if n == 0 {
		c.mu.Unlock()
		return
	}

	next := c.state.CurrentIndex
	switch {
	case c.state.Shuffle:
		next = c.randIndex(n)
	case c.state.Repeat == model.RepeatOne:
		// restart current
	case c.state.Repeat == model.RepeatAll:
		next = (c.state.CurrentIndex + 1) % n
	default:
		next = c.state.CurrentIndex + 1
		if next >= n {
			c.mu.Unlock()
			return
		}
	}
	c.state.CurrentIndex = next
	track := c.state.Queue[next]
	c.mu.Unlock()

	c.startTrack(track)
}

// Previous steps back one queue position. At the head of the queue it is a
// no-op rather than a wrap.
func (c *Controller) Previous() {
	c.mu.Lock()
	if len(c.state.Queue) == 0 || c.state.CurrentIndex == 0 {
		c.mu.Unlock()
		return
	}
	c.state.CurrentIndex--
	track := c.state.Queue[c.state.CurrentIndex]
	c.mu.Unlock()

	c.startTrack(track)
}

// SetVolume applies a volume, clamped to [0,1].
func (c *Controller) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	c.mu.Lock()
	c.state.Volume = volume
	adapter := c.active
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if adapter != nil {
		adapter.SetVolume(volume)
	}
	c.notify(snap)
}

// Seek moves the playhead. The position updates optimistically so the UI
// does not snap back while the adapter catches up.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	if c.state.CurrentTrack == nil {
		c.mu.Unlock()
		return
	}
	c.state.Position = seconds
	adapter := c.active
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if adapter != nil {
		adapter.Seek(seconds)
	}
	c.notify(snap)
}

// ToggleShuffle flips shuffle mode. The queue order itself never changes.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	c.state.Shuffle = !c.state.Shuffle
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// ToggleRepeat cycles off -> one -> all -> off.
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	switch c.state.Repeat {
	case model.RepeatOff:
		c.state.Repeat = model.RepeatOne
	case model.RepeatOne:
		c.state.Repeat = model.RepeatAll
	default:
		c.state.Repeat = model.RepeatOff
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// ReportAdapterState implements Reporter. Reports from a superseded load
// generation are discarded so a stale adapter cannot clobber the state of
// the track that replaced it.
func (c *Controller) ReportAdapterState(gen uint64, isPlaying bool, position, duration float64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state.IsPlaying = isPlaying
	c.state.Position = position
	c.state.Duration = duration
	c.failures = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// TrackEnded implements Reporter. Repeat-one replays the current track in
// place; otherwise the queue advances sequentially, wrapping only under
// repeat-all, and stops at the end keeping the index where it is.
func (c *Controller) TrackEnded(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}

	if c.state.Repeat == model.RepeatOne && c.state.CurrentTrack != nil {
		c.state.Position = 0
		c.state.IsPlaying = true
		adapter := c.active
		snap := c.snapshotLocked()
		c.mu.Unlock()

		if adapter != nil {
			adapter.SetPlaying(true)
		}
		c.notify(snap)
		return
	}

	next := c.state.CurrentIndex + 1
	switch {
	case next < len(c.state.Queue):
		c.state.CurrentIndex = next
		track := c.state.Queue[next]
		c.mu.Unlock()
		c.startTrack(track)
	case c.state.Repeat == model.RepeatAll && len(c.state.Queue) > 0:
		c.state.CurrentIndex = 0
		track := c.state.Queue[0]
		c.mu.Unlock()
		c.startTrack(track)
	default:
		c.state.IsPlaying = false
		c.state.Position = 0
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
	}
}

// TrackFailed implements Reporter. A track that cannot play is treated like
// one that ended, so playback moves on instead of stalling.
func (c *Controller) TrackFailed(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.failures++
	stuck := c.failures > len(c.state.Queue)
	var title string
	if c.state.CurrentTrack != nil {
		title = c.state.CurrentTrack.Title
	}
	c.mu.Unlock()

	logger.Error("track playback failed",
		logger.String("track", title),
		logger.ErrorField(err))

	if stuck {
		// Every queue entry failed in a row; stop instead of cycling.
		c.mu.Lock()
		c.state.IsPlaying = false
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return
	}
	c.TrackEnded(gen)
}

// startTrack makes track current and hands it to its origin's adapter.
func (c *Controller) startTrack(track model.Track) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	t := track
	c.state.CurrentTrack = &t
	c.state.IsPlaying = true
	c.state.Position = 0
	c.state.Duration = 0
	volume := c.state.Volume

	previous := c.active
	adapter, ok := c.adapters[track.Origin]
	c.active = adapter
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if previous != nil && previous != adapter {
		previous.Unload()
	}
	c.notify(snap)

	if !ok {
		c.TrackFailed(gen, fmt.Errorf("no adapter registered for origin %q", track.Origin))
		return
	}

	if err := adapter.Load(context.Background(), track, gen); err != nil {
		c.TrackFailed(gen, err)
		return
	}
	adapter.SetVolume(volume)
	adapter.SetPlaying(true)
}
