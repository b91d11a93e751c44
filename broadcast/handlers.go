package broadcast

import "sync"

// handlerSet is a concurrency-safe list of subscribers.
type handlerSet struct {
	mu     sync.RWMutex
	nextID int
	fns    map[int]func(Message)
}

func (h *handlerSet) add(fn func(Message)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[int]func(Message))
	}
	id := h.nextID
	h.nextID++
	h.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.fns, id)
			h.mu.Unlock()
		})
	}
}

func (h *handlerSet) dispatch(m Message) {
	h.mu.RLock()
	fns := make([]func(Message), 0, len(h.fns))
	for _, fn := range h.fns {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(m)
	}
}

func (h *handlerSet) clear() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}
