package gesture

import "sync"

// Dispatcher is an InputSource that fans events out to subscribers in
// subscription order. Hosts feed it from their native event loop.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(PointerEvent)
	order    []int
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[int]func(PointerEvent))}
}

// Subscribe implements InputSource. The returned function removes the
// handler and may be called more than once.
func (d *Dispatcher) Subscribe(handler func(PointerEvent)) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.handlers[id] = handler
	d.order = append(d.order, id)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.handlers[id]; !ok {
			return
		}
		delete(d.handlers, id)
		for i, o := range d.order {
			if o == id {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
}

// Dispatch delivers ev to every subscriber.
func (d *Dispatcher) Dispatch(ev PointerEvent) {
	d.mu.Lock()
	hs := make([]func(PointerEvent), 0, len(d.order))
	for _, id := range d.order {
		hs = append(hs, d.handlers[id])
	}
	d.mu.Unlock()

	for _, h := range hs {
		h(ev)
	}
}

// Subscribers returns the number of registered handlers.
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}
