package importapp

import (
	"context"
	"time"

	"github.com/kasapos/backend/internal/domain/bulk"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"go.uber.org/zap"
)

// HistoryLog stores the outcome of finished imports
type HistoryLog interface {
	RecordImport(ctx context.Context, history *bulk.ImportHistory) error
	ImportHistory(ctx context.Context, limit int) ([]bulk.ImportHistory, error)
}

// WithServiceHistory records committed, failed and canceled imports in h
func WithServiceHistory(h HistoryLog) ServiceOption {
	return func(s *Service) {
		s.history = h
	}
}

// History returns at most limit entries, newest first.
// Without a history log the list is empty.
func (s *Service) History(ctx context.Context, limit int) ([]bulk.ImportHistory, error) {
	if s.history == nil {
		return []bulk.ImportHistory{}, nil
	}
	return s.history.ImportHistory(ctx, limit)
}

// recordOutcome closes a history entry for the session with finish and stores it.
// A failed write is logged; it never changes the import outcome.
func (c *Coordinator) recordOutcome(ctx context.Context, rowErrors []csvimport.RowError, finish func(h *bulk.ImportHistory, at time.Time) error) {
	log := c.svc.history
	if log == nil {
		return
	}
	snap := c.session.Snapshot()
	entry, err := bulk.NewImportHistory(snap.ID.String(), snap.FileName, string(snap.FileType), snap.FileSize, snap.CreatedAt)
	if err != nil {
		c.svc.logger.Warn("import history entry rejected", zap.String("session_id", snap.ID.String()), zap.Error(err))
		return
	}
	entry.SetRows(snap.TotalRows, snap.ValidRows, snap.ErrorRows)
	entry.SetErrors(errorDetails(rowErrors))
	if err := finish(entry, time.Now()); err != nil {
		return
	}

	// the request context may already be canceled when a run is aborted
	if err := log.RecordImport(context.WithoutCancel(ctx), entry); err != nil {
		c.svc.logger.Warn("failed to record import history",
			zap.String("session_id", snap.ID.String()),
			zap.String("outcome", string(entry.Outcome)),
			zap.Error(err),
		)
	}
}

func errorDetails(rowErrors []csvimport.RowError) []bulk.ImportErrorDetail {
	n := min(len(rowErrors), bulk.MaxErrorDetails)
	details := make([]bulk.ImportErrorDetail, 0, n)
	for _, e := range rowErrors[:n] {
		details = append(details, bulk.ImportErrorDetail{
			Row:     e.Row,
			Column:  e.Column,
			Code:    e.Code,
			Message: e.Message,
		})
	}
	return details
}

func failHistory(h *bulk.ImportHistory, at time.Time) error {
	return h.Fail(at)
}

func cancelHistory(h *bulk.ImportHistory, at time.Time) error {
	return h.Cancel(at)
}

func commitHistory(report *CommitReport) func(*bulk.ImportHistory, time.Time) error {
	return func(h *bulk.ImportHistory, at time.Time) error {
		return h.Commit(report.Inserted, report.Updated, report.Failed, report.CategoriesCreated, at)
	}
}
