package event

import (
	"slices"
	"sync"

	"github.com/kasapos/backend/internal/domain/shared"
)

// subscription is what one handler listens to. A handler subscribed with no
// types receives everything.
type subscription struct {
	seq   uint64
	all   bool
	types map[string]struct{}
}

func (s *subscription) wants(eventType string) bool {
	if s.all {
		return true
	}
	_, ok := s.types[eventType]
	return ok
}

// HandlerRegistry maps handlers to the event types they receive.
// Handlers are returned in the order they first subscribed.
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs map[shared.EventHandler]*subscription
	seq  uint64
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{subs: make(map[shared.EventHandler]*subscription)}
}

// Register adds eventTypes to handler's subscription; no types means all.
// Registering again widens the subscription and keeps its position.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[handler]
	if !ok {
		r.seq++
		sub = &subscription{seq: r.seq, types: make(map[string]struct{})}
		r.subs[handler] = sub
	}
	if len(eventTypes) == 0 {
		sub.all = true
	}
	for _, t := range eventTypes {
		sub.types[t] = struct{}{}
	}
}

// Unregister drops handler entirely
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, handler)
}

// GetHandlers returns a snapshot of the handlers receiving eventType
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	type entry struct {
		seq uint64
		h   shared.EventHandler
	}
	matched := make([]entry, 0, len(r.subs))
	for h, sub := range r.subs {
		if sub.wants(eventType) {
			matched = append(matched, entry{sub.seq, h})
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]shared.EventHandler, len(matched))
	for i, e := range matched {
		out[i] = e.h
	}
	return out
}

// IsRegistered reports whether handler currently receives eventType
func (r *HandlerRegistry) IsRegistered(handler shared.EventHandler, eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[handler]
	return ok && sub.wants(eventType)
}

// Len returns the number of subscribed handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
