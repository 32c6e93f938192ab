// Package gesture recognises swipe-to-dismiss drags on toast elements.
package gesture

import (
	"math"
	"time"

	"github.com/jmylchreest/toastui/internal/placement"
)

// Point is a screen position or offset in pixels (cells for terminal hosts).
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p*k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Size is the measured extent of an element.
type Size struct {
	Width, Height float64
}

// EventType identifies a pointer event.
type EventType int

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
	PointerCancel
	// PointerLeave means the pointer left the whole surface, not an element.
	PointerLeave
)

// String returns the string representation of EventType.
func (t EventType) String() string {
	switch t {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	case PointerLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// PointerEvent is a single pointer sample delivered by an InputSource.
type PointerEvent struct {
	Type     EventType
	Position Point
	// Time is the event timestamp used for velocity. A zero Time is
	// replaced by the tracker's clock.
	Time time.Time
	// Target is the element hit by the pointer, or nil. Only consulted on
	// PointerDown.
	Target Element
}

// Element is a swipeable visual item owned by a host.
type Element interface {
	// Swipeable reports whether the element accepts swipe dismissal.
	Swipeable() bool
	// Axis is the permitted swipe axis. AxisUnset defers to the tracker.
	Axis() placement.Axis
	// Size is the element's measured extent.
	Size() Size
	// Attached reports whether the element is still on screen.
	Attached() bool
	// SetOffset moves the element visually. progress is in [0,1] and may
	// be used for fading.
	SetOffset(offset Point, progress float64)
}

// InputSource delivers pointer events.
type InputSource interface {
	Subscribe(handler func(PointerEvent)) (unsubscribe func())
}
