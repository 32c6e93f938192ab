package gesture

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/clock"
	"github.com/jmylchreest/toastui/internal/clock/clocktest"
	"github.com/jmylchreest/toastui/internal/placement"
)

type fakeElement struct {
	mu        sync.Mutex
	axis      placement.Axis
	size      Size
	swipeable bool
	attached  bool
	offsets   []Point
	progress  float64
}

func newElement(axis placement.Axis) *fakeElement {
	return &fakeElement{
		axis:      axis,
		size:      Size{Width: 300, Height: 100},
		swipeable: true,
		attached:  true,
	}
}

func (e *fakeElement) Swipeable() bool      { return e.swipeable }
func (e *fakeElement) Axis() placement.Axis { return e.axis }
func (e *fakeElement) Size() Size           { return e.size }

func (e *fakeElement) Attached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attached
}

func (e *fakeElement) SetOffset(off Point, progress float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offsets = append(e.offsets, off)
	e.progress = progress
}

func (e *fakeElement) detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = false
}

func (e *fakeElement) lastOffset() Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.offsets) == 0 {
		return Point{}
	}
	return e.offsets[len(e.offsets)-1]
}

type harness struct {
	t        *testing.T
	tracker  *Tracker
	input    *Dispatcher
	clock    *clocktest.Fake
	swiped   []Element
	canceled []Element
	start    time.Time
}

func newHarness(t *testing.T, dir placement.Direction) *harness {
	h := &harness{t: t, input: NewDispatcher(), clock: clocktest.NewFake()}
	h.start = h.clock.Now()
	h.tracker = New(Options{
		Input:     h.input,
		Clock:     h.clock,
		Frames:    clock.NewIntervalFrames(h.clock, 16*time.Millisecond),
		Direction: dir,
		OnSwipe:   func(el Element) { h.swiped = append(h.swiped, el) },
		OnCancel:  func(el Element) { h.canceled = append(h.canceled, el) },
	})
	return h
}

func (h *harness) at(ms int) time.Time {
	return h.start.Add(time.Duration(ms) * time.Millisecond)
}

func (h *harness) down(el Element, x, y float64, ms int) {
	h.input.Dispatch(PointerEvent{Type: PointerDown, Position: Point{x, y}, Time: h.at(ms), Target: el})
}

func (h *harness) moveTo(x, y float64, ms int) {
	h.input.Dispatch(PointerEvent{Type: PointerMove, Position: Point{x, y}, Time: h.at(ms)})
}

func (h *harness) up(ms int) {
	h.input.Dispatch(PointerEvent{Type: PointerUp, Time: h.at(ms)})
}

// settle runs frames until every animation has finished.
func (h *harness) settle() {
	h.clock.Advance(time.Second)
}

func TestTracker_SlowDragBelowThresholdCancels(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(30, 0, 100)
	h.moveTo(60, 0, 200)
	h.moveTo(90, 0, 300)
	assert.Equal(t, Dragging, h.tracker.Phase())
	h.up(310)
	assert.Equal(t, Resolving, h.tracker.Phase())

	h.settle()
	assert.Empty(t, h.swiped)
	require.Len(t, h.canceled, 1)
	assert.Equal(t, Point{}, el.lastOffset())
	assert.Equal(t, Idle, h.tracker.Phase())
	assert.Nil(t, h.tracker.Active())
}

func TestTracker_DistanceCommit(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 10, 10, 0)
	for i := 1; i <= 6; i++ {
		h.moveTo(10+float64(i)*30, 10, i*100)
	}
	h.up(2000)

	h.settle()
	require.Len(t, h.swiped, 1)
	assert.Same(t, el, h.swiped[0])
	assert.Empty(t, h.canceled)
	assert.Equal(t, Point{X: 300}, el.lastOffset())
}

func TestTracker_FlickCommitsShortDrag(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(60, 0, 50)
	h.up(60)

	h.settle()
	assert.Len(t, h.swiped, 1)
}

func TestTracker_FlickBelowMinimumProgressCancels(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(15, 0, 10)
	h.up(12)

	h.settle()
	assert.Empty(t, h.swiped)
	assert.Len(t, h.canceled, 1)
}

func TestTracker_StaleFlickIgnored(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(60, 0, 50)
	h.up(500)

	h.settle()
	assert.Empty(t, h.swiped)
}

func TestTracker_AxisRejection(t *testing.T) {
	tests := []struct {
		name string
		axis placement.Axis
		dx   float64
		dy   float64
	}{
		{"perpendicular to inline", placement.AxisInlineEnd, 0, 80},
		{"against inline-end", placement.AxisInlineEnd, -200, 0},
		{"against block-end", placement.AxisBlockEnd, 0, -90},
		{"perpendicular to block", placement.AxisBlockStart, 250, 0},
		{"perpendicular to any-inline", placement.AxisAnyInline, 3, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, placement.LTR)
			el := newElement(tt.axis)

			h.down(el, 100, 100, 0)
			h.moveTo(100+tt.dx/2, 100+tt.dy/2, 20)
			h.moveTo(100+tt.dx, 100+tt.dy, 40)
			h.up(45)
			h.settle()

			assert.Empty(t, h.swiped)
			for _, off := range el.offsets {
				assert.Equal(t, Point{}, off)
			}
		})
	}
}

func TestTracker_SmallAgainstAxisJitterClamps(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(-5, 4, 100)
	h.clock.Advance(20 * time.Millisecond)
	assert.Equal(t, Point{}, el.lastOffset())
	assert.Equal(t, Dragging, h.tracker.Phase())
}

func TestTracker_RTLFlipsInlineAxis(t *testing.T) {
	h := newHarness(t, placement.RTL)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 300, 0, 0)
	h.moveTo(250, 0, 200)
	h.moveTo(200, 0, 400)
	h.moveTo(100, 0, 600)
	h.up(610)
	h.settle()

	require.Len(t, h.swiped, 1)
	assert.Equal(t, Point{X: -300}, el.lastOffset())
}

func TestTracker_AnyAxisUsesDominantDirection(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisAny)

	h.down(el, 0, 0, 0)
	h.moveTo(-20, 30, 200)
	h.moveTo(-40, 60, 400)
	h.up(410)
	h.settle()

	require.Len(t, h.swiped, 1)
	assert.Equal(t, Point{Y: 100}, el.lastOffset())
}

func TestTracker_BlockStartCommitsUpward(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisBlockStart)

	h.down(el, 50, 50, 0)
	h.moveTo(52, 20, 200)
	h.moveTo(51, -10, 400)
	h.up(405)
	h.settle()

	require.Len(t, h.swiped, 1)
	assert.Equal(t, Point{Y: -100}, el.lastOffset())
}

func TestTracker_DetachedElementAbortsSilently(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(250, 0, 100)
	h.up(110)
	el.detach()
	h.settle()

	assert.Empty(t, h.swiped)
	assert.Empty(t, h.canceled)
	assert.Equal(t, Idle, h.tracker.Phase())
}

func TestTracker_DetachedWhileDragging(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	el.detach()
	h.moveTo(200, 0, 100)
	h.clock.Advance(20 * time.Millisecond)
	assert.Equal(t, Idle, h.tracker.Phase())

	h.up(120)
	h.settle()
	assert.Empty(t, h.swiped)
}

func TestTracker_IgnoresSecondPointerDown(t *testing.T) {
	h := newHarness(t, placement.LTR)
	first := newElement(placement.AxisInlineEnd)
	second := newElement(placement.AxisInlineEnd)

	h.down(first, 0, 0, 0)
	h.down(second, 0, 0, 10)
	assert.Same(t, first, h.tracker.Active())
}

func TestTracker_IgnoresNonSwipeableTargets(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)
	el.swipeable = false

	h.down(el, 0, 0, 0)
	h.down(nil, 0, 0, 0)
	assert.Equal(t, Idle, h.tracker.Phase())
}

func TestTracker_UnsetAxisUsesTrackerDefault(t *testing.T) {
	h := newHarness(t, placement.LTR)
	h.tracker.SetAxis(placement.AxisBlockEnd)
	el := newElement(placement.AxisUnset)

	h.down(el, 0, 0, 0)
	h.moveTo(0, 80, 200)
	h.up(210)
	h.settle()

	require.Len(t, h.swiped, 1)
	assert.Equal(t, Point{Y: 100}, el.lastOffset())
}

func TestTracker_ZeroDeltaTimeKeepsVelocityFinite(t *testing.T) {
	h := newHarness(t, placement.LTR)
	el := newElement(placement.AxisInlineEnd)

	h.down(el, 0, 0, 0)
	h.moveTo(20, 0, 20)
	h.moveTo(40, 0, 20)
	h.moveTo(41, 0, 10)

	h.tracker.mu.Lock()
	v, a := h.tracker.g.velocity, h.tracker.g.accel
	h.tracker.mu.Unlock()
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	assert.False(t, math.IsNaN(a) || math.IsInf(a, 0))
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestTracker_CoalescesFramesDuringDrag(t *testing.T) {
	fc := clocktest.NewFake()
	frames := clocktest.NewFrames(fc)
	input := NewDispatcher()
	tr := New(Options{Input: input, Clock: fc, Frames: frames})
	el := newElement(placement.AxisInlineEnd)

	input.Dispatch(PointerEvent{Type: PointerDown, Target: el})
	for x := 10.0; x <= 50; x += 10 {
		fc.Advance(5 * time.Millisecond)
		input.Dispatch(PointerEvent{Type: PointerMove, Position: Point{X: x}})
	}
	assert.Equal(t, 1, frames.Pending())
	frames.Flush()

	require.Len(t, el.offsets, 1)
	assert.Equal(t, Point{X: 50}, el.offsets[0])
	assert.InDelta(t, 50.0/300.0, el.progress, 1e-9)
	assert.Equal(t, Dragging, tr.Phase())
}

func TestTracker_CloseUnsubscribes(t *testing.T) {
	h := newHarness(t, placement.LTR)
	assert.Equal(t, 1, h.input.Subscribers())

	h.tracker.Close()
	h.tracker.Close()
	assert.Equal(t, 0, h.input.Subscribers())

	h.tracker.Handle(PointerEvent{Type: PointerDown, Target: newElement(placement.AxisAny)})
	assert.Equal(t, Idle, h.tracker.Phase())
}

func TestTracker_CancelAndLeaveResolveLikeUp(t *testing.T) {
	tests := []struct {
		name   string
		typ    EventType
		dx     float64
		commit bool
	}{
		{"cancel after long drag", PointerCancel, 180, true},
		{"cancel after short drag", PointerCancel, 90, false},
		{"leave after long drag", PointerLeave, 180, true},
		{"leave after short drag", PointerLeave, 90, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, placement.LTR)
			el := newElement(placement.AxisInlineEnd)

			h.down(el, 0, 0, 0)
			for i := 1; i <= 3; i++ {
				h.moveTo(tt.dx*float64(i)/3, 0, i*100)
			}
			require.Equal(t, Dragging, h.tracker.Phase())

			h.input.Dispatch(PointerEvent{Type: tt.typ, Time: h.at(2000)})
			assert.Equal(t, Resolving, h.tracker.Phase())

			h.settle()
			assert.Equal(t, Idle, h.tracker.Phase())
			assert.Nil(t, h.tracker.Active())
			if tt.commit {
				assert.Len(t, h.swiped, 1)
				assert.Empty(t, h.canceled)
			} else {
				assert.Empty(t, h.swiped)
				assert.Len(t, h.canceled, 1)
				assert.Equal(t, Point{}, el.lastOffset())
			}
		})
	}
}

func TestTracker_SynchronousFramesSettleAtOnce(t *testing.T) {
	input := NewDispatcher()
	var swiped []Element
	tr := New(Options{
		Input:   input,
		Clock:   clock.New(),
		Frames:  clock.ImmediateFrames{Clock: clock.New()},
		OnSwipe: func(el Element) { swiped = append(swiped, el) },
	})
	defer tr.Close()
	el := newElement(placement.AxisInlineEnd)

	input.Dispatch(PointerEvent{Type: PointerDown, Target: el})
	input.Dispatch(PointerEvent{Type: PointerMove, Position: Point{X: 200}})
	input.Dispatch(PointerEvent{Type: PointerUp})

	require.Len(t, swiped, 1)
	assert.Equal(t, Idle, tr.Phase())
	el.mu.Lock()
	defer el.mu.Unlock()
	assert.LessOrEqual(t, len(el.offsets), 3)
	assert.Equal(t, Point{X: 300}, el.offsets[len(el.offsets)-1])
}

func TestThresholds_ShouldCommit(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		progress, speed, accel float64
		want                   bool
	}{
		{0.51, 0, 0, true},
		{0.5, 0, 0, false},
		{0.2, 0.6, 0, true},
		{0.2, 0, 0.06, true},
		{0.2, 0.4, 0.04, false},
		{0.1, 5, 5, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.ShouldCommit(tt.progress, tt.speed, tt.accel), "%+v", tt)
	}
}

func TestThresholds_Defaults(t *testing.T) {
	th := Thresholds{Commit: 0.7}.withDefaults()
	assert.Equal(t, 0.7, th.Commit)
	assert.Equal(t, 10.0, th.Tolerance)
	assert.Equal(t, 200*time.Millisecond, th.SettleDuration)

	cells := DefaultThresholds().Scaled(8)
	assert.Equal(t, 1.25, cells.Tolerance)
	assert.Equal(t, 0.5, cells.Commit)
}
