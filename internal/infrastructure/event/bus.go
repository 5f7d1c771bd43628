package event

import (
	"context"
	"fmt"

	"github.com/kasapos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus implements shared.EventBus with synchronous in-process dispatch.
// Each store instance owns its own bus, so subscribers never leak across instances.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish delivers events to their handlers on the caller's goroutine.
// Handlers are snapshotted when each event starts; a handler unsubscribed
// while the event is being delivered is skipped. Handler errors and panics
// are logged and do not stop delivery to the remaining handlers.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if !b.registry.IsRegistered(handler, event.EventType()) {
				continue
			}
			if err := b.dispatchToHandler(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Int64("entity_id", event.EntityID()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// SubscribeFunc wraps fn in a handler, subscribes it and returns it for later Unsubscribe
func (b *InMemoryEventBus) SubscribeFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *shared.EventHandlerFunc {
	h := &shared.EventHandlerFunc{Fn: fn, Types: eventTypes}
	b.Subscribe(h, eventTypes...)
	return h
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// HandlerCount returns the number of distinct subscribed handlers
func (b *InMemoryEventBus) HandlerCount() int {
	return b.registry.Len()
}

func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
