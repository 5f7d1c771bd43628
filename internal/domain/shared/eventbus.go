package shared

import "context"

// EventHandler receives published events.
// EventTypes lists the types it wants when subscribed without explicit types;
// an empty list means every type.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventHandlerFunc lets a plain function subscribe. Subscriptions are keyed
// by the adapter pointer, so wrapping one function twice gives two subscribers.
type EventHandlerFunc struct {
	Fn    func(ctx context.Context, event DomainEvent) error
	Types []string
}

func (h *EventHandlerFunc) Handle(ctx context.Context, event DomainEvent) error {
	return h.Fn(ctx, event)
}

func (h *EventHandlerFunc) EventTypes() []string { return h.Types }

// EventBus delivers events to subscribed handlers
type EventBus interface {
	Publish(ctx context.Context, events ...DomainEvent) error
	// Subscribe with no types falls back to handler.EventTypes()
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}
