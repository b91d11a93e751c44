package broadcast

import (
	"context"
	"sync"
)

// Hub is an in-process registry of named channels.
type Hub struct {
	mu        sync.Mutex
	endpoints map[string]map[*Endpoint]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{endpoints: make(map[string]map[*Endpoint]struct{})}
}

// Open returns a new endpoint on the channel called name.
func (h *Hub) Open(name string) *Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	ep := &Endpoint{hub: h, name: name}
	set, ok := h.endpoints[name]
	if !ok {
		set = make(map[*Endpoint]struct{})
		h.endpoints[name] = set
	}
	set[ep] = struct{}{}
	return ep
}

func (h *Hub) peers(ep *Endpoint) []*Endpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.endpoints[ep.name]
	out := make([]*Endpoint, 0, len(set))
	for peer := range set {
		if peer != ep {
			out = append(out, peer)
		}
	}
	return out
}

func (h *Hub) remove(ep *Endpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.endpoints[ep.name]
	delete(set, ep)
	if len(set) == 0 {
		delete(h.endpoints, ep.name)
	}
}

// Endpoint is a Channel attached to a Hub.
type Endpoint struct {
	hub      *Hub
	name     string
	handlers handlerSet

	mu     sync.Mutex
	closed bool
}

func (e *Endpoint) Post(_ context.Context, m Message) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	for _, peer := range e.hub.peers(e) {
		peer.deliver(m)
	}
	return nil
}

func (e *Endpoint) deliver(m Message) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return
	}
	e.handlers.dispatch(m)
}

func (e *Endpoint) Subscribe(fn func(Message)) func() {
	return e.handlers.add(fn)
}

func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.hub.remove(e)
	e.handlers.clear()
	return nil
}
