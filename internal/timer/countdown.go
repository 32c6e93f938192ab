// Package timer provides a pausable countdown.
package timer

import (
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/clock"
)

// Countdown fires a callback once after a duration of unpaused wall-clock
// time. A new Countdown is paused; call Resume to start it.
type Countdown struct {
	mu        sync.Mutex
	clock     clock.Clock
	fn        func()
	total     time.Duration
	remaining time.Duration
	armedAt   time.Time
	timer     clock.Timer
	gen       uint64
	fired     bool
	stopped   bool
}

// NewCountdown returns a paused countdown that calls fn after d.
func NewCountdown(c clock.Clock, d time.Duration, fn func()) *Countdown {
	if c == nil {
		c = clock.New()
	}
	if d < 0 {
		d = 0
	}
	return &Countdown{
		clock:     c,
		fn:        fn,
		total:     d,
		remaining: d,
	}
}

// Resume arms the countdown for the remaining duration. It is a no-op when
// already running, fired or stopped.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil || c.fired || c.stopped {
		return
	}
	c.gen++
	gen := c.gen
	c.armedAt = c.clock.Now()
	c.timer = c.clock.AfterFunc(c.remaining, func() { c.fire(gen) })
}

// Pause disarms the countdown and keeps the unelapsed remainder. It is a
// no-op when not running.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer == nil {
		return
	}
	c.timer.Stop()
	c.timer = nil
	c.gen++
	c.remaining = c.remainingLocked()
}

// Stop disarms the countdown permanently.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.remaining = c.remainingLocked()
		c.timer = nil
	}
}

// Remaining returns the time left before the callback fires.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fired {
		return 0
	}
	if c.timer == nil {
		return c.remaining
	}
	return c.remainingLocked()
}

// Total returns the duration the countdown was created with.
func (c *Countdown) Total() time.Duration {
	return c.total
}

// Running reports whether the countdown is armed.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Fired reports whether the callback has been invoked.
func (c *Countdown) Fired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

func (c *Countdown) remainingLocked() time.Duration {
	left := c.remaining - c.clock.Now().Sub(c.armedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (c *Countdown) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.fired || c.stopped {
		c.mu.Unlock()
		return
	}
	c.fired = true
	c.timer = nil
	c.remaining = 0
	fn := c.fn
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}
