// Package toast manages the lifecycle of on-screen toasts: adding, timed
// auto-dismissal with pause and resume, manual close and swipe dismissal.
package toast

import (
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/toastui/internal/clock"
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/model"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/timer"
)

// DefaultDuration is the auto-dismiss delay used when none is configured.
const DefaultDuration = 5 * time.Second

// NoAutoDismiss disables the countdown for a toast or a queue.
const NoAutoDismiss time.Duration = -1

// Presentation modes.
const (
	ModeList  = "list"
	ModeStack = "stack"
)

// Activation modes for a stacked queue.
const (
	ActivateOnHover = "hover"
	ActivateOnClick = "click"
)

// Options configures a Queue. Zero values fall back to defaults.
type Options struct {
	// Duration is the default auto-dismiss delay. Zero means
	// DefaultDuration; negative disables auto-dismiss.
	Duration       time.Duration
	Placement      placement.Placement
	Direction      placement.Direction
	Mode           string
	ActivationMode string
	// PauseOnPageIdle pauses countdowns while the surface is hidden.
	PauseOnPageIdle bool
	// PauseOnHover pauses countdowns while the pointer is over the stack.
	PauseOnHover bool

	Surface    Surface
	Input      gesture.InputSource
	Clock      clock.Clock
	// Frames paces surface updates and swipe animation. Nil means frames
	// every clock.DefaultFrameInterval on Clock.
	Frames     clock.FrameScheduler
	Transition Transition
	Gesture    gesture.Thresholds
	Observer   Observer
	// OnAction is called by Invoke with the action key.
	OnAction func(ref Ref, key string)
	Logger   *slog.Logger
}

// AddOptions configures a single toast.
type AddOptions struct {
	// Duration overrides the queue default when set. Zero or negative
	// disables auto-dismiss.
	Duration *time.Duration
	// Dismissible defaults to true.
	Dismissible *bool
	Action      *model.Action
	OnClose     func(ref Ref, reason CloseReason)
}

// Ref is a snapshot of a queued toast.
type Ref struct {
	ID          string
	Index       int
	Timestamp   time.Time
	Dismissible bool
	Content     model.Content
	Action      *model.Action
	OnClose     func(ref Ref, reason CloseReason)
	Axis        placement.Axis
	Duration    time.Duration
	Remaining   time.Duration
	Paused      bool
}

// Zero reports whether r refers to no toast.
func (r Ref) Zero() bool {
	return r.ID == ""
}

type entry struct {
	id          string
	index       int
	createdAt   time.Time
	dismissible bool
	content     model.Content
	action      *model.Action
	onClose     func(Ref, CloseReason)
	axis        placement.Axis
	duration    time.Duration
	countdown   *timer.Countdown
	handle      Handle
}

func (e *entry) ref() Ref {
	r := Ref{
		ID:          e.id,
		Index:       e.index,
		Timestamp:   e.createdAt,
		Dismissible: e.dismissible,
		Content:     e.content,
		Action:      e.action,
		OnClose:     e.onClose,
		Axis:        e.axis,
		Duration:    e.duration,
	}
	if e.countdown != nil {
		r.Remaining = e.countdown.Remaining()
		r.Paused = !e.countdown.Running() && !e.countdown.Fired()
	}
	return r
}

// Queue owns the active toasts.
type Queue struct {
	mu     sync.Mutex
	logger *slog.Logger

	clock      clock.Clock
	surface    Surface
	transition Transition
	observer   Observer
	onAction   func(Ref, string)
	tracker    *gesture.Tracker
	present    *clock.FrameSlot
	entropy    io.Reader

	duration        time.Duration
	mode            string
	activationMode  string
	pauseOnHover    bool
	pauseOnPageIdle bool

	placement placement.Placement
	direction placement.Direction

	entries   map[string]*entry
	order     []string
	byElement map[gesture.Element]string
	nextIndex int

	manualPause bool
	hovering    bool
	hidden      bool
	destroyed   bool
}

// New creates a queue. When opts.Input is set the queue tracks swipe
// gestures on it until Destroy.
func New(opts Options) *Queue {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := opts.Clock
	if c == nil {
		c = clock.New()
	}
	surface := opts.Surface
	if surface == nil {
		surface = nopSurface{}
	}
	transition := opts.Transition
	if transition == nil {
		transition = ImmediateTransition{}
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	frames := opts.Frames
	if frames == nil {
		frames = clock.NewIntervalFrames(c, clock.DefaultFrameInterval)
	}

	duration := opts.Duration
	if duration == 0 {
		duration = DefaultDuration
	}
	p := opts.Placement
	if !p.Valid() {
		p = placement.Default
	}
	dir := opts.Direction
	if dir != placement.RTL {
		dir = placement.LTR
	}
	mode := opts.Mode
	if mode != ModeStack {
		mode = ModeList
	}
	activation := opts.ActivationMode
	if activation != ActivateOnHover && activation != ActivateOnClick {
		activation = ""
	}

	q := &Queue{
		logger:          logger,
		clock:           c,
		surface:         surface,
		transition:      transition,
		observer:        observer,
		onAction:        opts.OnAction,
		present:         clock.NewFrameSlot(frames),
		entropy:         ulid.Monotonic(rand.Reader, 0),
		duration:        duration,
		mode:            mode,
		activationMode:  activation,
		pauseOnHover:    opts.PauseOnHover,
		pauseOnPageIdle: opts.PauseOnPageIdle,
		placement:       p,
		direction:       dir,
		entries:         make(map[string]*entry),
		byElement:       make(map[gesture.Element]string),
	}

	if opts.Input != nil {
		q.tracker = gesture.New(gesture.Options{
			Input:      opts.Input,
			Clock:      c,
			Frames:     frames,
			Thresholds: opts.Gesture,
			Axis:       placement.AxisFor(p),
			Direction:  dir,
			OnSwipe:    q.handleSwipe,
			OnCancel:   func(gesture.Element) { q.observer.Gesture(false) },
			Logger:     logger,
		})
	}
	return q
}

// Add queues a toast and returns its snapshot. After Destroy it returns a
// zero Ref.
func (q *Queue) Add(content model.Content, opts AddOptions) Ref {
	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return Ref{}
	}

	duration := q.duration
	if opts.Duration != nil {
		duration = *opts.Duration
	}
	dismissible := true
	if opts.Dismissible != nil {
		dismissible = *opts.Dismissible
	}

	q.nextIndex++
	e := &entry{
		id:          q.newIDLocked(),
		index:       q.nextIndex,
		createdAt:   q.clock.Now(),
		dismissible: dismissible,
		content:     content,
		action:      opts.Action,
		onClose:     opts.OnClose,
	}
	if dismissible {
		e.axis = placement.AxisFor(q.placement)
	}
	if duration > 0 {
		e.duration = duration
		e.countdown = q.newCountdown(e.id, duration)
		if !q.suspendedLocked() {
			e.countdown.Resume()
		}
	}
	q.entries[e.id] = e
	q.order = append(q.order, e.id)
	ref := e.ref()
	q.mu.Unlock()

	q.logger.Debug("toast added", "id", ref.ID, "level", content.Level, "duration", duration)

	if h := q.surface.Mount(ref); h != nil {
		q.attach(e, h)
	}
	q.observer.Added(ref)
	q.requestUpdate()
	return ref
}

// attach binds a mounted handle to its entry, releasing it if the entry
// was closed while mounting.
func (q *Queue) attach(e *entry, h Handle) {
	q.mu.Lock()
	if _, ok := q.entries[e.id]; !ok {
		q.mu.Unlock()
		h.Release()
		return
	}
	e.handle = h
	q.byElement[h] = e.id
	axis := e.axis
	q.mu.Unlock()

	if axis != placement.AxisUnset {
		h.SetAxis(axis)
	}
}

func (q *Queue) newCountdown(id string, d time.Duration) *timer.Countdown {
	return timer.NewCountdown(q.clock, d, func() {
		q.CloseWithReason(id, CloseReasonExpired)
	})
}

func (q *Queue) newIDLocked() string {
	for {
		id, err := ulid.New(ulid.Timestamp(q.clock.Now()), q.entropy)
		if err != nil {
			id = ulid.Make()
		}
		s := id.String()
		if _, taken := q.entries[s]; !taken {
			return s
		}
	}
}

// Get returns the toast with the given id.
func (q *Queue) Get(id string) (Ref, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[id]
	if !ok {
		return Ref{}, false
	}
	return e.ref(), true
}

// Close removes a toast as closed by request. Unknown ids are ignored.
func (q *Queue) Close(id string) {
	q.CloseWithReason(id, CloseReasonClosed)
}

// CloseWithReason removes a toast and calls its OnClose exactly once, no
// matter how many closes race for it. It reports whether this call closed
// the toast.
func (q *Queue) CloseWithReason(id string, reason CloseReason) bool {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return false
	}
	q.removeLocked(e)
	if e.countdown != nil {
		e.countdown.Stop()
	}
	ref := e.ref()
	q.mu.Unlock()

	q.logger.Debug("toast closed", "id", id, "reason", reason)

	if e.onClose != nil {
		e.onClose(ref, reason)
	}
	if e.handle != nil {
		e.handle.Release()
	}
	q.observer.Closed(ref, reason)
	q.requestUpdate()
	return true
}

func (q *Queue) removeLocked(e *entry) {
	delete(q.entries, e.id)
	if e.handle != nil {
		delete(q.byElement, e.handle)
	}
	for i, id := range q.order {
		if id == e.id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Clear removes every toast without calling OnClose.
func (q *Queue) Clear() {
	removed := q.drain()
	for _, e := range removed {
		if e.handle != nil {
			e.handle.Release()
		}
	}
	q.logger.Debug("toasts cleared", "count", len(removed))
	q.observer.Cleared(len(removed))
	q.requestUpdate()
}

// drain empties the queue and stops every countdown, in insertion order.
func (q *Queue) drain() []*entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := make([]*entry, 0, len(q.order))
	for _, id := range q.order {
		e := q.entries[id]
		if e.countdown != nil {
			e.countdown.Stop()
		}
		removed = append(removed, e)
	}
	q.entries = make(map[string]*entry)
	q.byElement = make(map[gesture.Element]string)
	q.order = nil
	return removed
}

// Replace swaps a toast's content and restarts its countdown.
func (q *Queue) Replace(id string, content model.Content) (Ref, bool) {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok {
		q.mu.Unlock()
		return Ref{}, false
	}
	e.content = content
	if e.countdown != nil {
		e.countdown.Stop()
		e.countdown = q.newCountdown(e.id, e.duration)
		if !q.suspendedLocked() {
			e.countdown.Resume()
		}
	}
	ref := e.ref()
	q.mu.Unlock()

	q.requestUpdate()
	return ref, true
}

// Invoke runs a toast's action. Unless the action is resident the toast is
// then dismissed. It reports whether the toast had an action.
func (q *Queue) Invoke(id string) bool {
	q.mu.Lock()
	e, ok := q.entries[id]
	if !ok || e.action == nil {
		q.mu.Unlock()
		return false
	}
	action := *e.action
	ref := e.ref()
	onAction := q.onAction
	q.mu.Unlock()

	q.logger.Debug("toast action invoked", "id", id, "action", action.Key)
	if onAction != nil {
		onAction(ref, action.Key)
	}
	if !action.Resident {
		q.CloseWithReason(id, CloseReasonDismissed)
	}
	return true
}

// Pause stops every countdown until Resume.
func (q *Queue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	was := q.suspendedLocked()
	q.manualPause = true
	q.applySuspendLocked(was)
}

// Resume restarts countdowns paused by Pause. Countdowns stay paused while
// hover or visibility still holds them.
func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	was := q.suspendedLocked()
	q.manualPause = false
	q.applySuspendLocked(was)
}

// SetHovering records whether the pointer is over the toast stack.
func (q *Queue) SetHovering(hovering bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	was := q.suspendedLocked()
	q.hovering = hovering
	q.applySuspendLocked(was)
}

// SetPageVisible records whether the surface can be seen.
func (q *Queue) SetPageVisible(visible bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	was := q.suspendedLocked()
	q.hidden = !visible
	q.applySuspendLocked(was)
}

// Paused reports whether countdowns are currently held.
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.suspendedLocked()
}

func (q *Queue) suspendedLocked() bool {
	return q.manualPause ||
		(q.hovering && q.pauseOnHover) ||
		(q.hidden && q.pauseOnPageIdle)
}

// applySuspendLocked broadcasts pause or resume in insertion order when
// the suspended state changed.
func (q *Queue) applySuspendLocked(was bool) {
	now := q.suspendedLocked()
	if now == was {
		return
	}
	for _, id := range q.order {
		c := q.entries[id].countdown
		if c == nil {
			continue
		}
		if now {
			c.Pause()
		} else {
			c.Resume()
		}
	}
	q.logger.Debug("toast countdowns", "paused", now, "count", len(q.order))
}

// SetPlacement moves the stack and updates every dismissible toast's swipe
// axis. Invalid placements are ignored.
func (q *Queue) SetPlacement(p placement.Placement) {
	if !p.Valid() {
		q.logger.Warn("ignoring invalid placement", "placement", p)
		return
	}
	axis := placement.AxisFor(p)

	q.mu.Lock()
	q.placement = p
	dir := q.direction
	var handles []Handle
	for _, id := range q.order {
		e := q.entries[id]
		if !e.dismissible {
			continue
		}
		e.axis = axis
		if e.handle != nil {
			handles = append(handles, e.handle)
		}
	}
	tracker := q.tracker
	q.mu.Unlock()

	if tracker != nil {
		tracker.SetAxis(axis)
	}
	for _, h := range handles {
		h.SetAxis(axis)
	}
	q.surface.SetPlacement(p, dir)
	q.logger.Debug("placement changed", "placement", p, "axis", axis)
	q.requestUpdate()
}

// Placement returns the current placement.
func (q *Queue) Placement() placement.Placement {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.placement
}

// SetDirection sets the writing direction used for inline swipe axes.
func (q *Queue) SetDirection(dir placement.Direction) {
	if dir != placement.RTL {
		dir = placement.LTR
	}
	q.mu.Lock()
	q.direction = dir
	p := q.placement
	tracker := q.tracker
	q.mu.Unlock()

	if tracker != nil {
		tracker.SetDirection(dir)
	}
	q.surface.SetPlacement(p, dir)
	q.requestUpdate()
}

// Direction returns the writing direction.
func (q *Queue) Direction() placement.Direction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.direction
}

// SetDuration changes the default auto-dismiss delay for later toasts.
func (q *Queue) SetDuration(d time.Duration) {
	if d == 0 {
		d = DefaultDuration
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.duration = d
}

// Mode returns the presentation mode, ModeList or ModeStack.
func (q *Queue) Mode() string {
	return q.mode
}

// ActivationMode returns how a stacked queue expands.
func (q *Queue) ActivationMode() string {
	return q.activationMode
}

// Len returns the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Entries returns snapshots in insertion order.
func (q *Queue) Entries() []Ref {
	q.mu.Lock()
	defer q.mu.Unlock()
	refs := make([]Ref, 0, len(q.order))
	for _, id := range q.order {
		refs = append(refs, q.entries[id].ref())
	}
	return refs
}

// Tracker returns the gesture tracker, or nil when the queue has no input.
func (q *Queue) Tracker() *gesture.Tracker {
	return q.tracker
}

// Destroy clears the queue, stops gesture tracking and turns later calls
// into no-ops.
func (q *Queue) Destroy() {
	q.mu.Lock()
	if q.destroyed {
		q.mu.Unlock()
		return
	}
	q.destroyed = true
	tracker := q.tracker
	q.mu.Unlock()

	removed := q.drain()
	for _, e := range removed {
		if e.handle != nil {
			e.handle.Release()
		}
	}
	if tracker != nil {
		tracker.Close()
	}
	q.present.Cancel()
	q.surface.Update(nil)
	q.logger.Debug("toast queue destroyed", "dropped", len(removed))
}

func (q *Queue) handleSwipe(el gesture.Element) {
	q.observer.Gesture(true)
	q.mu.Lock()
	id, ok := q.byElement[el]
	q.mu.Unlock()
	if !ok {
		return
	}
	q.CloseWithReason(id, CloseReasonSwiped)
}

func (q *Queue) requestUpdate() {
	q.mu.Lock()
	destroyed := q.destroyed
	q.mu.Unlock()
	if destroyed {
		return
	}
	q.present.Schedule(func(time.Time) {
		refs := q.Entries()
		q.observer.Visible(len(refs))
		q.transition.Run(func() { q.surface.Update(refs) })
	})
}
