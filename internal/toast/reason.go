package toast

// CloseReason says why a toast left the queue. The first three values match
// the freedesktop NotificationClosed reasons.
type CloseReason int

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3
	CloseReasonSwiped    CloseReason = 4
)

// String returns the string representation of CloseReason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonSwiped:
		return "swiped"
	default:
		return "unknown"
	}
}

// Freedesktop maps the reason onto the freedesktop range. A swipe is a user
// dismissal.
func (r CloseReason) Freedesktop() uint32 {
	switch r {
	case CloseReasonExpired, CloseReasonDismissed, CloseReasonClosed:
		return uint32(r)
	case CloseReasonSwiped:
		return uint32(CloseReasonDismissed)
	default:
		return 4
	}
}
