package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id int64) (*catalog.Category, error) {
	var category catalog.Category
	if err := r.db.WithContext(ctx).Take(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load category %d: %w", id, err)
	}
	return &category, nil
}

// FindAll returns every category ordered by ID
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	categories := []catalog.Category{}
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// FindByName matches on the folded name key, so "İÇECEK" finds "içecek"
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("name_key = ?", catalog.CategoryKey(name)).
		Order("id").
		Limit(1).
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if len(categories) == 0 {
		return nil, nil
	}
	return &categories[0], nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	category.Rename(category.Name)
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// Save replaces an existing category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	category.Rename(category.Name)
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("failed to save category %d: %w", category.ID, err)
	}
	return nil
}

// Delete deletes a category by ID
func (r *GormCategoryRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&catalog.Category{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}
	return nil
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
