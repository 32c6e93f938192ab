package clock

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler runs a callback on the next animation frame.
type FrameScheduler interface {
	// RequestFrame schedules f and returns a function that cancels it if it
	// has not yet run.
	RequestFrame(f func(now time.Time)) (cancel func())
}

// IntervalFrames emits frames at a fixed interval on top of a Clock.
type IntervalFrames struct {
	clock    Clock
	interval time.Duration
}

// NewIntervalFrames returns a scheduler that runs frame callbacks interval
// after they are requested. A non-positive interval uses
// DefaultFrameInterval.
func NewIntervalFrames(c Clock, interval time.Duration) *IntervalFrames {
	if c == nil {
		c = New()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &IntervalFrames{clock: c, interval: interval}
}

// RequestFrame implements FrameScheduler.
func (f *IntervalFrames) RequestFrame(fn func(now time.Time)) func() {
	t := f.clock.AfterFunc(f.interval, func() {
		fn(f.clock.Now())
	})
	return func() { t.Stop() }
}

// ImmediateFrames runs frame callbacks synchronously, so every request is
// applied at once. Animations driven by it finish in a single frame.
type ImmediateFrames struct {
	Clock Clock
}

// RequestFrame implements FrameScheduler.
func (f ImmediateFrames) RequestFrame(fn func(now time.Time)) func() {
	c := f.Clock
	if c == nil {
		c = New()
	}
	fn(c.Now())
	return func() {}
}

// FrameSlot holds at most one pending frame task. Scheduling a new task
// replaces one that has not run yet, so bursts of updates collapse into a
// single callback per frame.
type FrameSlot struct {
	mu     sync.Mutex
	sched  FrameScheduler
	cancel func()
	seq    uint64
	ran    uint64
}

// NewFrameSlot returns a slot bound to sched.
func NewFrameSlot(sched FrameScheduler) *FrameSlot {
	if sched == nil {
		sched = ImmediateFrames{}
	}
	return &FrameSlot{sched: sched}
}

// Schedule replaces any pending task with fn.
func (s *FrameSlot) Schedule(fn func(now time.Time)) {
	s.mu.Lock()
	prev := s.cancel
	s.cancel = nil
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	cancel := s.sched.RequestFrame(func(now time.Time) {
		s.mu.Lock()
		if s.seq != seq {
			s.mu.Unlock()
			return
		}
		s.cancel = nil
		s.ran = seq
		s.mu.Unlock()
		fn(now)
	})

	s.mu.Lock()
	if s.seq == seq && s.ran != seq {
		s.cancel = cancel
	}
	s.mu.Unlock()
}

// Cancel drops the pending task, if any.
func (s *FrameSlot) Cancel() {
	s.mu.Lock()
	prev := s.cancel
	s.cancel = nil
	s.seq++
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Pending reports whether a task is waiting for its frame.
func (s *FrameSlot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
