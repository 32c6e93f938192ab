package toast

import (
	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
)

// Surface presents toasts. Methods are called without the queue lock held
// and may be called from any goroutine; hosts marshal onto their UI thread.
type Surface interface {
	// Mount creates the visual for a new toast. It may return nil when the
	// surface has nothing swipeable to offer.
	Mount(ref Ref) Handle
	// Update presents the current entries in insertion order.
	Update(refs []Ref)
	// SetPlacement re-anchors the stack.
	SetPlacement(p placement.Placement, dir placement.Direction)
}

// Handle is the visual of one toast.
type Handle interface {
	gesture.Element
	// SetAxis changes the permitted swipe axis after a placement change.
	SetAxis(axis placement.Axis)
	// Release removes the visual. Attached must report false afterwards.
	Release()
}

// Transition wraps a presentation update, animating it when the host can.
type Transition interface {
	Run(update func())
}

// TransitionFunc adapts a function to Transition.
type TransitionFunc func(update func())

// Run implements Transition.
func (f TransitionFunc) Run(update func()) { f(update) }

// ImmediateTransition applies updates without animation.
type ImmediateTransition struct{}

// Run implements Transition.
func (ImmediateTransition) Run(update func()) { update() }

// Observer receives queue events, for metrics and sound cues.
type Observer interface {
	Added(ref Ref)
	Closed(ref Ref, reason CloseReason)
	Cleared(n int)
	Gesture(committed bool)
	Visible(n int)
}

type nopSurface struct{}

func (nopSurface) Mount(Ref) Handle                                      { return nil }
func (nopSurface) Update([]Ref)                                          {}
func (nopSurface) SetPlacement(placement.Placement, placement.Direction) {}

type nopObserver struct{}

func (nopObserver) Added(Ref)               {}
func (nopObserver) Closed(Ref, CloseReason) {}
func (nopObserver) Cleared(int)             {}
func (nopObserver) Gesture(bool)            {}
func (nopObserver) Visible(int)             {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Added(ref Ref) {
	for _, o := range m {
		o.Added(ref)
	}
}

func (m MultiObserver) Closed(ref Ref, reason CloseReason) {
	for _, o := range m {
		o.Closed(ref, reason)
	}
}

func (m MultiObserver) Cleared(n int) {
	for _, o := range m {
		o.Cleared(n)
	}
}

func (m MultiObserver) Gesture(committed bool) {
	for _, o := range m {
		o.Gesture(committed)
	}
}

func (m MultiObserver) Visible(n int) {
	for _, o := range m {
		o.Visible(n)
	}
}
