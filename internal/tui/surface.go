package tui

import (
	"sync"
	"sync/atomic"

	"github.com/jmylchreest/toastui/internal/gesture"
	"github.com/jmylchreest/toastui/internal/placement"
	"github.com/jmylchreest/toastui/internal/toast"
)

// Rect is a cell rectangle on the terminal screen.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell at x, y lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Surface presents toasts in the terminal. It implements toast.Surface and
// feeds mouse input to the queue's gesture tracker. Cells are the pixel
// unit.
type Surface struct {
	dispatcher *gesture.Dispatcher
	changes    chan struct{}

	mu        sync.Mutex
	cards     map[string]*card
	refs      []toast.Ref
	placement placement.Placement
	direction placement.Direction
	rects     map[string]Rect
	drawOrder []string
}

// NewSurface creates an empty terminal surface.
func NewSurface() *Surface {
	return &Surface{
		dispatcher: gesture.NewDispatcher(),
		changes:    make(chan struct{}, 1),
		cards:      make(map[string]*card),
		placement:  placement.Default,
		direction:  placement.LTR,
		rects:      make(map[string]Rect),
	}
}

// Input returns the pointer events delivered by Pointer.
func (s *Surface) Input() gesture.InputSource {
	return s.dispatcher
}

// Changes signals when the surface needs a redraw. Signals coalesce.
func (s *Surface) Changes() <-chan struct{} {
	return s.changes
}

func (s *Surface) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Mount implements toast.Surface.
func (s *Surface) Mount(ref toast.Ref) toast.Handle {
	c := &card{
		surface:     s,
		id:          ref.ID,
		dismissible: ref.Dismissible,
		axis:        ref.Axis,
	}
	s.mu.Lock()
	s.cards[ref.ID] = c
	s.mu.Unlock()
	return c
}

// Update implements toast.Surface.
func (s *Surface) Update(refs []toast.Ref) {
	s.mu.Lock()
	s.refs = refs
	for _, ref := range refs {
		if c, ok := s.cards[ref.ID]; ok {
			c.setDismissible(ref.Dismissible)
		}
	}
	s.mu.Unlock()
	s.changed()
}

// SetPlacement implements toast.Surface.
func (s *Surface) SetPlacement(p placement.Placement, dir placement.Direction) {
	s.mu.Lock()
	s.placement = p
	s.direction = dir
	s.mu.Unlock()
	s.changed()
}

// Refs returns the entries last presented by the queue.
func (s *Surface) Refs() []toast.Ref {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Placement returns the current anchor and writing direction.
func (s *Surface) Placement() (placement.Placement, placement.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placement, s.direction
}

// offset returns the swipe offset and progress of a toast.
func (s *Surface) offset(id string) (gesture.Point, float64) {
	s.mu.Lock()
	c, ok := s.cards[id]
	s.mu.Unlock()
	if !ok {
		return gesture.Point{}, 0
	}
	return c.current()
}

// setFrame records where each toast was drawn, for hit testing and swipe
// progress.
func (s *Surface) setFrame(f Frame) {
	rects := make(map[string]Rect, len(f.Cards))
	order := make([]string, 0, len(f.Cards))
	for _, pc := range f.Cards {
		rects[pc.ID] = pc.Rect
		order = append(order, pc.ID)
	}

	s.mu.Lock()
	s.rects = rects
	s.drawOrder = order
	for _, pc := range f.Cards {
		if c, ok := s.cards[pc.ID]; ok {
			c.setSize(gesture.Size{Width: float64(pc.Rect.W), Height: float64(pc.Rect.H)})
		}
	}
	s.mu.Unlock()
}

// HitTest returns the id of the topmost toast at x, y, or "".
func (s *Surface) HitTest(x, y int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.drawOrder) - 1; i >= 0; i-- {
		id := s.drawOrder[i]
		if s.rects[id].Contains(x, y) {
			return id
		}
	}
	return ""
}

// Pointer dispatches a pointer event at a cell. The toast under a press
// becomes its target.
func (s *Surface) Pointer(typ gesture.EventType, x, y int) {
	ev := gesture.PointerEvent{
		Type:     typ,
		Position: gesture.Point{X: float64(x), Y: float64(y)},
	}
	if typ == gesture.PointerDown {
		if id := s.HitTest(x, y); id != "" {
			s.mu.Lock()
			if c, ok := s.cards[id]; ok {
				ev.Target = c
			}
			s.mu.Unlock()
		}
	}
	s.dispatcher.Dispatch(ev)
}

func (s *Surface) forget(id string) {
	s.mu.Lock()
	delete(s.cards, id)
	delete(s.rects, id)
	s.mu.Unlock()
	s.changed()
}

// card is the terminal visual of one toast.
type card struct {
	surface *Surface
	id      string

	mu          sync.Mutex
	dismissible bool
	axis        placement.Axis
	size        gesture.Size
	offset      gesture.Point
	progress    float64

	released atomic.Bool
}

func (c *card) Swipeable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dismissible
}

func (c *card) Axis() placement.Axis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.axis
}

func (c *card) SetAxis(axis placement.Axis) {
	c.mu.Lock()
	c.axis = axis
	c.mu.Unlock()
}

func (c *card) Size() gesture.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *card) Attached() bool {
	return !c.released.Load()
}

func (c *card) SetOffset(offset gesture.Point, progress float64) {
	c.mu.Lock()
	c.offset = offset
	c.progress = progress
	c.mu.Unlock()
	c.surface.changed()
}

func (c *card) Release() {
	if c.released.Swap(true) {
		return
	}
	c.surface.forget(c.id)
}

func (c *card) current() (gesture.Point, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.progress
}

func (c *card) setSize(size gesture.Size) {
	c.mu.Lock()
	c.size = size
	c.mu.Unlock()
}

func (c *card) setDismissible(d bool) {
	c.mu.Lock()
	c.dismissible = d
	c.mu.Unlock()
}
