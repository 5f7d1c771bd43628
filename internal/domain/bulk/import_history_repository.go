package bulk

import (
	"context"
)

// ImportHistoryRepository defines the interface for import history persistence
type ImportHistoryRepository interface {
	// Create appends a finished entry and assigns its ID
	Create(ctx context.Context, history *ImportHistory) error

	// FindRecent returns at most limit entries, newest first
	FindRecent(ctx context.Context, limit int) ([]ImportHistory, error)

	// FindBySession returns the entry of a session; missing entries yield shared.ErrNotFound
	FindBySession(ctx context.Context, sessionID string) (*ImportHistory, error)
}
