package bulk

import (
	"fmt"
	"time"

	"github.com/kasapos/backend/internal/domain/shared"
)

// MaxErrorDetails caps how many row errors one history entry keeps
const MaxErrorDetails = 20

// ImportOutcome is how an import session ended
type ImportOutcome string

const (
	ImportOutcomeCommitted ImportOutcome = "committed"
	ImportOutcomeFailed    ImportOutcome = "failed"
	ImportOutcomeCanceled  ImportOutcome = "canceled"
)

// IsValid checks if the outcome is valid
func (o ImportOutcome) IsValid() bool {
	switch o {
	case ImportOutcomeCommitted, ImportOutcomeFailed, ImportOutcomeCanceled:
		return true
	}
	return false
}

// ImportErrorDetail is one row error kept with the history entry
type ImportErrorDetail struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportHistory records the outcome of one finished import session.
// Entries are append-only.
type ImportHistory struct {
	shared.BaseEntity
	SessionID         string              `gorm:"type:varchar(36);not null;index:idx_import_history_session" json:"session_id"`
	FileName          string              `gorm:"type:varchar(255);not null" json:"file_name"`
	FileType          string              `gorm:"type:varchar(10);not null" json:"file_type"`
	FileSize          int64               `gorm:"not null;default:0" json:"file_size"`
	Outcome           ImportOutcome       `gorm:"type:varchar(20);not null" json:"outcome"`
	TotalRows         int                 `gorm:"not null;default:0" json:"total_rows"`
	SuccessRows       int                 `gorm:"not null;default:0" json:"success_rows"`
	SkippedRows       int                 `gorm:"not null;default:0" json:"skipped_rows"`
	Inserted          int                 `gorm:"not null;default:0" json:"inserted"`
	Updated           int                 `gorm:"not null;default:0" json:"updated"`
	Failed            int                 `gorm:"not null;default:0" json:"failed"`
	CategoriesCreated []string            `gorm:"serializer:json" json:"categories_created"`
	ErrorDetails      []ImportErrorDetail `gorm:"serializer:json" json:"error_details"`
	StartedAt         time.Time           `gorm:"not null" json:"started_at"`
	FinishedAt        *time.Time          `json:"finished_at,omitempty"`
}

// TableName returns the table name for GORM
func (ImportHistory) TableName() string {
	return "import_history"
}

// NewImportHistory creates an open history entry for a session
func NewImportHistory(sessionID, fileName, fileType string, fileSize int64, startedAt time.Time) (*ImportHistory, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Session ID cannot be empty")
	}
	if fileName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "File size cannot be negative")
	}
	return &ImportHistory{
		SessionID:         sessionID,
		FileName:          fileName,
		FileType:          fileType,
		FileSize:          fileSize,
		CategoriesCreated: []string{},
		ErrorDetails:      []ImportErrorDetail{},
		StartedAt:         startedAt,
	}, nil
}

// SetRows copies the processing counters
func (h *ImportHistory) SetRows(total, success, skipped int) {
	h.TotalRows = total
	h.SuccessRows = success
	h.SkippedRows = skipped
}

// SetErrors keeps at most MaxErrorDetails row errors
func (h *ImportHistory) SetErrors(details []ImportErrorDetail) {
	if len(details) > MaxErrorDetails {
		details = details[:MaxErrorDetails]
	}
	h.ErrorDetails = append([]ImportErrorDetail{}, details...)
}

// Commit closes the entry with the catalog write counts
func (h *ImportHistory) Commit(inserted, updated, failed int, categories []string, at time.Time) error {
	if err := h.finish(ImportOutcomeCommitted, at); err != nil {
		return err
	}
	h.Inserted = inserted
	h.Updated = updated
	h.Failed = failed
	h.CategoriesCreated = append([]string{}, categories...)
	return nil
}

// Fail closes the entry as failed
func (h *ImportHistory) Fail(at time.Time) error {
	return h.finish(ImportOutcomeFailed, at)
}

// Cancel closes the entry as canceled
func (h *ImportHistory) Cancel(at time.Time) error {
	return h.finish(ImportOutcomeCanceled, at)
}

func (h *ImportHistory) finish(outcome ImportOutcome, at time.Time) error {
	if h.IsFinished() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Import history already finished as %s", h.Outcome))
	}
	h.Outcome = outcome
	h.FinishedAt = &at
	return nil
}

// IsFinished reports whether an outcome has been recorded
func (h *ImportHistory) IsFinished() bool {
	return h.FinishedAt != nil
}

// Duration returns how long the import ran; zero while unfinished
func (h *ImportHistory) Duration() time.Duration {
	if h.FinishedAt == nil {
		return 0
	}
	return h.FinishedAt.Sub(h.StartedAt)
}
