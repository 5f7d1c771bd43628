package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const storeGroups = "product_groups"

// NewProductGroupRepository selects the ordering strategy from the capability descriptor
func NewProductGroupRepository(db *gorm.DB, caps IndexCapabilities, recorder *DegradationRecorder) catalog.ProductGroupRepository {
	base := gormProductGroupRepository{db: db}
	if caps.GroupsOrder {
		return &IndexedProductGroupRepository{gormProductGroupRepository: base}
	}
	return &ScanProductGroupRepository{gormProductGroupRepository: base, recorder: recorder}
}

type gormProductGroupRepository struct {
	db *gorm.DB
}

// FindByID finds a group by its ID
func (r *gormProductGroupRepository) FindByID(ctx context.Context, id int64) (*catalog.ProductGroup, error) {
	var group catalog.ProductGroup
	if err := r.db.WithContext(ctx).Take(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product group %d: %w", id, err)
	}
	return &group, nil
}

// FindDefault returns the default group, or nil
func (r *gormProductGroupRepository) FindDefault(ctx context.Context) (*catalog.ProductGroup, error) {
	var groups []catalog.ProductGroup
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("id").
		Limit(1).
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load default group: %w", err)
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return &groups[0], nil
}

// Create inserts a new group
func (r *gormProductGroupRepository) Create(ctx context.Context, group *catalog.ProductGroup) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("failed to insert product group: %w", err)
	}
	return nil
}

// Save replaces an existing group
func (r *gormProductGroupRepository) Save(ctx context.Context, group *catalog.ProductGroup) error {
	if err := r.db.WithContext(ctx).Save(group).Error; err != nil {
		return fmt.Errorf("failed to save product group %d: %w", group.ID, err)
	}
	return nil
}

// Delete deletes a group by ID
func (r *gormProductGroupRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&catalog.ProductGroup{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product group %d: %w", id, err)
	}
	return nil
}

func (r *gormProductGroupRepository) findAll(ctx context.Context) ([]catalog.ProductGroup, error) {
	groups := []catalog.ProductGroup{}
	if err := r.db.WithContext(ctx).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list product groups: %w", err)
	}
	return groups, nil
}

// IndexedProductGroupRepository orders groups through idx_product_groups_order
type IndexedProductGroupRepository struct {
	gormProductGroupRepository
}

// FindAllOrdered returns every group ascending by order, ties broken by ID
func (r *IndexedProductGroupRepository) FindAllOrdered(ctx context.Context) ([]catalog.ProductGroup, error) {
	groups := []catalog.ProductGroup{}
	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM product_groups INDEXED BY " + IndexGroupsOrder + " ORDER BY sort_order, id").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product groups: %w", err)
	}
	return groups, nil
}

// MaxOrder returns the highest order, or -1 when there are no groups
func (r *IndexedProductGroupRepository) MaxOrder(ctx context.Context) (int, error) {
	var highest sql.NullInt64
	err := r.db.WithContext(ctx).
		Raw("SELECT MAX(sort_order) FROM product_groups INDEXED BY " + IndexGroupsOrder).
		Row().
		Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("failed to read max group order: %w", err)
	}
	if !highest.Valid {
		return -1, nil
	}
	return int(highest.Int64), nil
}

// ScanProductGroupRepository sorts groups in memory
type ScanProductGroupRepository struct {
	gormProductGroupRepository
	recorder *DegradationRecorder
}

// FindAllOrdered returns every group ascending by order, ties broken by ID
func (r *ScanProductGroupRepository) FindAllOrdered(ctx context.Context) ([]catalog.ProductGroup, error) {
	r.recorder.Record(ctx, storeGroups, IndexGroupsOrder, "ordered listing")
	groups, err := r.findAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Order != groups[j].Order {
			return groups[i].Order < groups[j].Order
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

// MaxOrder returns the highest order, or -1 when there are no groups
func (r *ScanProductGroupRepository) MaxOrder(ctx context.Context) (int, error) {
	r.recorder.Record(ctx, storeGroups, IndexGroupsOrder, "max order")
	groups, err := r.findAll(ctx)
	if err != nil {
		return 0, err
	}
	highest := -1
	for _, g := range groups {
		if g.Order > highest {
			highest = g.Order
		}
	}
	return highest, nil
}

var (
	_ catalog.ProductGroupRepository = (*IndexedProductGroupRepository)(nil)
	_ catalog.ProductGroupRepository = (*ScanProductGroupRepository)(nil)
)
