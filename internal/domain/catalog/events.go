package catalog

import (
	"github.com/kasapos/backend/internal/domain/shared"
)

// EventTypeStockChanged is published for every committed stock adjustment
const EventTypeStockChanged = "StockChanged"

// StockChangedEvent is published after a stock adjustment commits.
// It carries a copy of the product as stored after the change.
type StockChangedEvent struct {
	shared.EventHeader
	Product       Product `json:"product"`
	Delta         int     `json:"delta"`
	PreviousStock int     `json:"previous_stock"`
}

// NewStockChangedEvent creates a new StockChangedEvent
func NewStockChangedEvent(product Product, delta, previous int) *StockChangedEvent {
	return &StockChangedEvent{
		EventHeader:   shared.NewEventHeader(EventTypeStockChanged, product.ID),
		Product:       product,
		Delta:         delta,
		PreviousStock: previous,
	}
}
