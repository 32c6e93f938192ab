// Package clocktest provides a manually advanced clock for tests.
package clocktest

import (
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/clock"
)

// Epoch is the default start time of a Fake clock.
var Epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// Fake is a clock.Clock whose time only moves when Advance or Set is
// called. Timers fire synchronously on the advancing goroutine, in deadline
// order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	seq      int
	fn       func()
	stopped  bool
	fired    bool
}

// NewFake returns a Fake starting at Epoch.
func NewFake() *Fake {
	return &Fake{now: Epoch}
}

// Now implements clock.Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc implements clock.Clock.
func (f *Fake) AfterFunc(d time.Duration, fn func()) clock.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d < 0 {
		d = 0
	}
	f.seq++
	t := &fakeTimer{clock: f, deadline: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Stop implements clock.Timer.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.clock.removeLocked(t)
	return true
}

func (f *Fake) removeLocked(t *fakeTimer) {
	for i, c := range f.timers {
		if c == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d, firing every timer whose deadline is
// reached, including timers scheduled by callbacks during the advance.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()
	f.advanceTo(target)
}

// Set moves time to t. Moving backwards is allowed and fires nothing.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	if t.Before(f.now) {
		f.now = t
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.advanceTo(t)
}

func (f *Fake) advanceTo(target time.Time) {
	for {
		f.mu.Lock()
		sort.SliceStable(f.timers, func(i, j int) bool {
			if f.timers[i].deadline.Equal(f.timers[j].deadline) {
				return f.timers[i].seq < f.timers[j].seq
			}
			return f.timers[i].deadline.Before(f.timers[j].deadline)
		})
		if len(f.timers) == 0 || f.timers[0].deadline.After(target) {
			f.now = target
			f.mu.Unlock()
			return
		}
		t := f.timers[0]
		f.timers = f.timers[1:]
		t.fired = true
		if t.deadline.After(f.now) {
			f.now = t.deadline
		}
		f.mu.Unlock()
		t.fn()
	}
}

// Pending returns the number of armed timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// Frames is a clock.FrameScheduler that only runs callbacks when Flush is
// called.
type Frames struct {
	mu      sync.Mutex
	clock   clock.Clock
	pending []*frame
}

type frame struct {
	fn        func(time.Time)
	cancelled bool
}

// NewFrames returns a manual frame scheduler reading time from c.
func NewFrames(c clock.Clock) *Frames {
	return &Frames{clock: c}
}

// RequestFrame implements clock.FrameScheduler.
func (f *Frames) RequestFrame(fn func(now time.Time)) func() {
	fr := &frame{fn: fn}
	f.mu.Lock()
	f.pending = append(f.pending, fr)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		fr.cancelled = true
		f.mu.Unlock()
	}
}

// Flush runs every frame requested before the call and returns how many
// callbacks ran.
func (f *Frames) Flush() int {
	f.mu.Lock()
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()

	ran := 0
	for _, fr := range batch {
		f.mu.Lock()
		cancelled := fr.cancelled
		f.mu.Unlock()
		if cancelled {
			continue
		}
		fr.fn(f.clock.Now())
		ran++
	}
	return ran
}

// Pending returns the number of requested, uncancelled frames.
func (f *Frames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.pending {
		if !fr.cancelled {
			n++
		}
	}
	return n
}
