package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasapos/backend/internal/domain/bulk"
	"github.com/kasapos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// defaultHistoryLimit applies when a caller asks for a non-positive limit
const defaultHistoryLimit = 50

// GormImportHistoryRepository implements ImportHistoryRepository using GORM
type GormImportHistoryRepository struct {
	db *gorm.DB
}

// NewGormImportHistoryRepository creates a new GormImportHistoryRepository
func NewGormImportHistoryRepository(db *gorm.DB) *GormImportHistoryRepository {
	return &GormImportHistoryRepository{db: db}
}

// Create appends a finished entry
func (r *GormImportHistoryRepository) Create(ctx context.Context, history *bulk.ImportHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to insert import history: %w", err)
	}
	return nil
}

// FindRecent returns at most limit entries, newest first
func (r *GormImportHistoryRepository) FindRecent(ctx context.Context, limit int) ([]bulk.ImportHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	histories := []bulk.ImportHistory{}
	if err := r.db.WithContext(ctx).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&histories).Error; err != nil {
		return nil, fmt.Errorf("failed to list import history: %w", err)
	}
	return histories, nil
}

// FindBySession returns the entry recorded for a session
func (r *GormImportHistoryRepository) FindBySession(ctx context.Context, sessionID string) (*bulk.ImportHistory, error) {
	var history bulk.ImportHistory
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		First(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load import history: %w", err)
	}
	return &history, nil
}

// Ensure GormImportHistoryRepository implements bulk.ImportHistoryRepository
var _ bulk.ImportHistoryRepository = (*GormImportHistoryRepository)(nil)
