package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact published after a catalog change commits
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// EntityID is the store ID of the changed row
	EntityID() int64
}

// EventHeader carries the identity of an event. Concrete events embed it.
type EventHeader struct {
	ID     uuid.UUID `json:"id"`
	Type   string    `json:"type"`
	At     time.Time `json:"occurred_at"`
	Entity int64     `json:"entity_id"`
}

// NewEventHeader stamps a new event of eventType about entity
func NewEventHeader(eventType string, entity int64) EventHeader {
	return EventHeader{
		ID:     uuid.New(),
		Type:   eventType,
		At:     time.Now(),
		Entity: entity,
	}
}

func (h *EventHeader) EventID() uuid.UUID    { return h.ID }
func (h *EventHeader) EventType() string     { return h.Type }
func (h *EventHeader) OccurredAt() time.Time { return h.At }
func (h *EventHeader) EntityID() int64       { return h.Entity }
