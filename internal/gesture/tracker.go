package gesture

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jmylchreest/toastui/internal/clock"
	"github.com/jmylchreest/toastui/internal/placement"
)

// Phase is the tracker state.
type Phase int

const (
	// Idle means no gesture is in progress.
	Idle Phase = iota
	// Dragging means a pointer is down on a swipeable element.
	Dragging
	// Resolving means the element is animating off-screen or back to rest.
	Resolving
)

// String returns the string representation of Phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// Options configures a Tracker.
type Options struct {
	Input      InputSource
	Clock      clock.Clock
	Frames     clock.FrameScheduler
	Thresholds Thresholds
	// Axis is used for elements that report AxisUnset.
	Axis      placement.Axis
	Direction placement.Direction
	// OnSwipe is called once per committed gesture, after the element has
	// animated off-screen.
	OnSwipe func(Element)
	// OnCancel is called when a gesture snaps back.
	OnCancel func(Element)
	Logger   *slog.Logger
}

// Tracker follows one pointer drag at a time and decides whether it
// dismisses the dragged element.
type Tracker struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	slot   *clock.FrameSlot
	th     Thresholds

	// instant skips the settle animation when frames run synchronously.
	instant bool

	onSwipe  func(Element)
	onCancel func(Element)

	unsubscribe func()
	closed      bool

	axis  placement.Axis
	dir   placement.Direction
	phase Phase
	gen   uint64
	g     drag
}

// drag is the state of the gesture in progress.
type drag struct {
	el       Element
	axis     placement.Axis
	vec      placement.Vector
	size     Size
	origin   Point
	last     Point
	lastTime time.Time
	velocity float64
	accel    float64
	offset   Point
	progress float64
}

// New creates a tracker and subscribes it to opts.Input.
func New(opts Options) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	frames := opts.Frames
	if frames == nil {
		frames = clock.NewIntervalFrames(c, clock.DefaultFrameInterval)
	}
	dir := opts.Direction
	if dir != placement.RTL {
		dir = placement.LTR
	}

	t := &Tracker{
		logger:   logger,
		clock:    c,
		slot:     clock.NewFrameSlot(frames),
		th:       opts.Thresholds.withDefaults(),
		instant:  synchronous(frames),
		onSwipe:  opts.OnSwipe,
		onCancel: opts.OnCancel,
		axis:     opts.Axis,
		dir:      dir,
	}
	if opts.Input != nil {
		t.unsubscribe = opts.Input.Subscribe(t.Handle)
	}
	return t
}

func synchronous(f clock.FrameScheduler) bool {
	switch f.(type) {
	case clock.ImmediateFrames, *clock.ImmediateFrames:
		return true
	}
	return false
}

// Close detaches the tracker from its input source and abandons any
// gesture in progress.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.resetLocked()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()

	t.slot.Cancel()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// SetAxis sets the axis used for elements that do not report one.
func (t *Tracker) SetAxis(axis placement.Axis) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.axis = axis
}

// SetDirection sets the writing direction used to resolve inline axes. A
// gesture already in progress keeps its direction.
func (t *Tracker) SetDirection(dir placement.Direction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dir = dir
}

// Phase returns the current state.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Active returns the element being dragged or settled, or nil.
func (t *Tracker) Active() Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.g.el
}

// Handle feeds one pointer event to the tracker.
func (t *Tracker) Handle(ev PointerEvent) {
	if ev.Time.IsZero() {
		ev.Time = t.clock.Now()
	}
	switch ev.Type {
	case PointerDown:
		t.begin(ev)
	case PointerMove:
		t.move(ev)
	case PointerUp, PointerCancel, PointerLeave:
		t.release(ev)
	}
}

func (t *Tracker) begin(ev PointerEvent) {
	el := ev.Target
	if el == nil || !el.Swipeable() || !el.Attached() {
		return
	}
	axis := el.Axis()
	size := el.Size()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.phase != Idle {
		return
	}
	if axis == placement.AxisUnset {
		axis = t.axis
	}
	if axis == placement.AxisUnset {
		axis = placement.AxisAny
	}

	t.gen++
	t.phase = Dragging
	t.g = drag{
		el:       el,
		axis:     axis,
		vec:      axis.Resolve(t.dir),
		size:     size,
		origin:   ev.Position,
		last:     ev.Position,
		lastTime: ev.Time,
	}
	t.logger.Debug("swipe started", "axis", axis, "direction", t.dir, "x", ev.Position.X, "y", ev.Position.Y)
}

func (t *Tracker) move(ev PointerEvent) {
	t.mu.Lock()
	if t.phase != Dragging {
		t.mu.Unlock()
		return
	}
	g := &t.g
	d := ev.Position.Sub(g.origin)
	if t.rejected(d) {
		t.mu.Unlock()
		return
	}

	g.offset = constrain(d, g.vec)
	g.progress = progressOf(g.offset, g.vec, g.size)

	dt := float64(ev.Time.Sub(g.lastTime)) / float64(time.Millisecond)
	if dt > 0 {
		speed := ev.Position.Sub(g.last).Len() / dt
		accel := (speed - g.velocity) / dt
		if finite(speed) && finite(accel) {
			g.accel = accel
			g.velocity = speed
		}
		g.last = ev.Position
		g.lastTime = ev.Time
	}

	gen := t.gen
	t.mu.Unlock()

	t.slot.Schedule(func(time.Time) { t.paint(gen) })
}

// rejected reports whether a displacement strays against the permitted
// axis by more than the tolerance.
func (t *Tracker) rejected(d Point) bool {
	v := t.g.vec
	if v.Horizontal && v.Vertical {
		return false
	}
	primary, perp := d.X, d.Y
	sign := v.X
	if v.Vertical {
		primary, perp = d.Y, d.X
		sign = v.Y
	}
	tol := t.th.Tolerance
	if math.Abs(perp) > tol && math.Abs(perp) > math.Abs(primary) {
		return true
	}
	return sign != 0 && primary*sign < -tol
}

func (t *Tracker) paint(gen uint64) {
	t.mu.Lock()
	if t.gen != gen || t.phase != Dragging {
		t.mu.Unlock()
		return
	}
	el, off, progress := t.g.el, t.g.offset, t.g.progress
	t.mu.Unlock()

	if !el.Attached() {
		t.abort(gen)
		return
	}
	el.SetOffset(off, progress)
}

func (t *Tracker) release(ev PointerEvent) {
	t.mu.Lock()
	if t.phase != Dragging {
		t.mu.Unlock()
		return
	}
	g := &t.g
	speed, accel := g.velocity, g.accel
	if ev.Time.Sub(g.lastTime) > t.th.FlickWindow {
		speed, accel = 0, 0
	}
	commit := t.th.ShouldCommit(g.progress, speed, accel)

	to := Point{}
	if commit {
		to = offscreen(g.offset, g.vec, g.size)
	}
	t.phase = Resolving
	s := settle{
		gen:    t.gen,
		from:   g.offset,
		to:     to,
		start:  t.clock.Now(),
		commit: commit,
	}
	t.logger.Debug("swipe released",
		"type", ev.Type,
		"progress", g.progress,
		"velocity", speed,
		"acceleration", accel,
		"commit", commit,
	)
	t.mu.Unlock()

	t.slot.Schedule(t.animate(s))
}

// settle is one off-screen or snap-back animation.
type settle struct {
	gen      uint64
	from, to Point
	start    time.Time
	last     time.Time
	commit   bool
}

func (t *Tracker) animate(s settle) func(time.Time) {
	return func(now time.Time) {
		t.mu.Lock()
		if t.gen != s.gen || t.phase != Resolving {
			t.mu.Unlock()
			return
		}
		el, vec, size := t.g.el, t.g.vec, t.g.size
		dur := t.th.SettleDuration
		t.mu.Unlock()

		if !el.Attached() {
			t.abort(s.gen)
			return
		}

		p := 1.0
		if dur > 0 && !t.instant && (s.last.IsZero() || now.After(s.last)) {
			p = math.Min(1, float64(now.Sub(s.start))/float64(dur))
		}
		e := 1 - math.Pow(1-p, 3)
		off := s.from.Add(s.to.Sub(s.from).Scale(e))
		if p >= 1 {
			off = s.to
		}
		el.SetOffset(off, progressOf(off, vec, size))

		if p < 1 {
			s.last = now
			t.slot.Schedule(t.animate(s))
			return
		}
		t.finish(s)
	}
}

func (t *Tracker) finish(s settle) {
	t.mu.Lock()
	if t.gen != s.gen {
		t.mu.Unlock()
		return
	}
	el := t.g.el
	t.resetLocked()
	onSwipe, onCancel := t.onSwipe, t.onCancel
	t.mu.Unlock()

	if s.commit {
		if !el.Attached() {
			return
		}
		t.logger.Debug("swipe committed")
		if onSwipe != nil {
			onSwipe(el)
		}
		return
	}
	t.logger.Debug("swipe cancelled")
	if onCancel != nil {
		onCancel(el)
	}
}

// abort drops a gesture whose element went away.
func (t *Tracker) abort(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return
	}
	t.resetLocked()
	t.logger.Debug("swipe aborted, element detached")
}

func (t *Tracker) resetLocked() {
	t.gen++
	t.phase = Idle
	t.g = drag{}
}

// constrain projects a raw displacement onto the permitted travel.
func constrain(d Point, v placement.Vector) Point {
	switch {
	case v.Horizontal && v.Vertical:
		return d
	case v.Horizontal:
		if v.X != 0 && d.X*v.X < 0 {
			return Point{}
		}
		return Point{X: d.X}
	default:
		if v.Y != 0 && d.Y*v.Y < 0 {
			return Point{}
		}
		return Point{Y: d.Y}
	}
}

// progressOf is the displacement as a fraction of the element's extent.
func progressOf(off Point, v placement.Vector, size Size) float64 {
	px := ratio(off.X, size.Width)
	py := ratio(off.Y, size.Height)
	switch {
	case v.Horizontal && v.Vertical:
		return math.Max(px, py)
	case v.Horizontal:
		return px
	default:
		return py
	}
}

func ratio(d, extent float64) float64 {
	if extent <= 0 {
		return 0
	}
	r := math.Abs(d) / extent
	if !finite(r) {
		return 0
	}
	return r
}

// offscreen returns the final offset for a committed gesture.
func offscreen(off Point, v placement.Vector, size Size) Point {
	horizontal := v.Horizontal
	if v.Horizontal && v.Vertical {
		horizontal = ratio(off.X, size.Width) >= ratio(off.Y, size.Height)
	}
	if horizontal {
		sign := v.X
		if sign == 0 {
			sign = signOf(off.X)
		}
		return Point{X: sign * size.Width}
	}
	sign := v.Y
	if sign == 0 {
		sign = signOf(off.Y)
	}
	return Point{Y: sign * size.Height}
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
