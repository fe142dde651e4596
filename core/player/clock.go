package player

import (
	"sync"
	"time"
)

// defaultReportInterval matches the one-second polling cadence the embedded
// players report on.
const defaultReportInterval = time.Second

// playbackClock simulates the transport for media whose renderer offers no
// position readback. It advances on a fixed cadence while playing and emits
// a report per tick; callbacks are always invoked with the internal lock
// released.
type playbackClock struct {
	mu         sync.Mutex
	interval   time.Duration
	playing    bool
	position   float64
	duration   float64
	endedFired bool
	stop       chan struct{}

	report func(isPlaying bool, position, duration float64)
	ended  func()
}

func newPlaybackClock(interval time.Duration, report func(bool, float64, float64), ended func()) *playbackClock {
	if interval <= 0 {
		interval = defaultReportInterval
	}
	return &playbackClock{
		interval: interval,
		report:   report,
		ended:    ended,
	}
}

// start resets the clock for a new load cycle and launches the tick loop.
func (c *playbackClock) start(duration float64) {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	c.stop = make(chan struct{})
	c.playing = false
	c.position = 0
	c.duration = duration
	c.endedFired = false
	stop := c.stop
	c.mu.Unlock()

	go c.run(stop)
}

// halt stops the tick loop. Safe to call repeatedly.
func (c *playbackClock) halt() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.mu.Unlock()
}

func (c *playbackClock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick advances the playhead by one interval and emits a report. Crossing
// the end of the media fires the ended callback exactly once.
func (c *playbackClock) tick() {
	c.mu.Lock()
	if c.playing {
		c.position += c.interval.Seconds()
		if c.duration > 0 && c.position >= c.duration {
			c.position = c.duration
			c.playing = false
			if !c.endedFired {
				c.endedFired = true
				playing, pos, dur := c.playing, c.position, c.duration
				c.mu.Unlock()
				c.report(playing, pos, dur)
				c.ended()
				return
			}
		}
	}
	playing, pos, dur := c.playing, c.position, c.duration
	c.mu.Unlock()
	c.report(playing, pos, dur)
}

// setPlaying starts or suspends the clock. Resuming after the natural end
// replays from the start, mirroring a media element replay.
func (c *playbackClock) setPlaying(playing bool) {
	c.mu.Lock()
	if playing && c.endedFired {
		c.position = 0
		c.endedFired = false
	}
	c.playing = playing
	pl, pos, dur := c.playing, c.position, c.duration
	c.mu.Unlock()
	c.report(pl, pos, dur)
}

// seek moves the playhead, clamped to the media bounds. Seeking back before
// the end re-arms the ended callback.
func (c *playbackClock) seek(seconds float64) {
	c.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.position = seconds
	if c.duration == 0 || seconds < c.duration {
		c.endedFired = false
	}
	pl, pos, dur := c.playing, c.position, c.duration
	c.mu.Unlock()
	c.report(pl, pos, dur)
}

// snapshot returns the current transport values.
func (c *playbackClock) snapshot() (playing bool, position, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing, c.position, c.duration
}
