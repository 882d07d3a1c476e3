package event

// Handler reports whether it consumed the event.
type Handler func(e Event) bool

// Dispatcher calls the handlers registered for an event's kind in
// registration order until one consumes it. It is not safe for concurrent
// use; events are dispatched on the thread that polls the window.
type Dispatcher struct {
	handlers map[Kind][]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[Kind][]Handler{}}
}

func (d *Dispatcher) Listen(kind Kind, h Handler) {
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Offer delivers e and reports whether a handler consumed it.
func (d *Dispatcher) Offer(e Event) bool {
	if e == nil {
		return false
	}
	for _, h := range d.handlers[e.Kind()] {
		if h(e) {
			return true
		}
	}
	return false
}

// On registers fn for every event of type E. fn never consumes the event.
func On[E Event](d *Dispatcher, fn func(E)) {
	var zero E
	d.Listen(zero.Kind(), func(e Event) bool {
		if typed, ok := e.(E); ok {
			fn(typed)
		}
		return false
	})
}
