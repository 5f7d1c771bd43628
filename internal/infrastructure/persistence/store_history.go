package persistence

import (
	"context"

	"github.com/kasapos/backend/internal/domain/bulk"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
)

// RecordImport appends a finished import to the history log
func (s *CatalogStore) RecordImport(ctx context.Context, history *bulk.ImportHistory) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "catalog.RecordImport", "import.outcome", string(history.Outcome))
	defer span.End()

	if err := s.history.Create(ctx, history); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// ImportHistory returns at most limit history entries, newest first
func (s *CatalogStore) ImportHistory(ctx context.Context, limit int) ([]bulk.ImportHistory, error) {
	return s.history.FindRecent(ctx, limit)
}

// ImportHistoryBySession returns the history entry of one session
func (s *CatalogStore) ImportHistoryBySession(ctx context.Context, sessionID string) (*bulk.ImportHistory, error) {
	return s.history.FindBySession(ctx, sessionID)
}
