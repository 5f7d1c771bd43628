package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasapos/backend/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const storeRelations = "product_group_relations"

// relationColumn looks up and deletes relations by one of the two key columns
type relationColumn interface {
	find(ctx context.Context, db *gorm.DB, id int64) ([]catalog.ProductGroupRelation, error)
	deleteAll(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}

// indexedRelationColumn queries through the column's secondary index
type indexedRelationColumn struct {
	column string
	index  string
}

func (c indexedRelationColumn) find(ctx context.Context, db *gorm.DB, id int64) ([]catalog.ProductGroupRelation, error) {
	rels := []catalog.ProductGroupRelation{}
	err := db.WithContext(ctx).
		Raw("SELECT * FROM product_group_relations INDEXED BY "+c.index+" WHERE "+c.column+" = ?", id).
		Scan(&rels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list relations by %s: %w", c.column, err)
	}
	return rels, nil
}

func (c indexedRelationColumn) deleteAll(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	result := db.WithContext(ctx).
		Exec("DELETE FROM product_group_relations INDEXED BY "+c.index+" WHERE "+c.column+" = ?", id)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete relations by %s: %w", c.column, result.Error)
	}
	return result.RowsAffected, nil
}

// scanRelationColumn filters the whole relation table in memory
type scanRelationColumn struct {
	column   string
	index    string
	key      func(catalog.ProductGroupRelation) int64
	recorder *DegradationRecorder
}

func (c scanRelationColumn) find(ctx context.Context, db *gorm.DB, id int64) ([]catalog.ProductGroupRelation, error) {
	c.recorder.Record(ctx, storeRelations, c.index, "lookup by "+c.column)
	return c.filter(ctx, db, id)
}

func (c scanRelationColumn) deleteAll(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	c.recorder.Record(ctx, storeRelations, c.index, "delete by "+c.column)
	rels, err := c.filter(ctx, db, id)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, rel := range rels {
		result := db.WithContext(ctx).
			Where("group_id = ? AND product_id = ?", rel.GroupID, rel.ProductID).
			Delete(&catalog.ProductGroupRelation{})
		if result.Error != nil {
			return deleted, fmt.Errorf("failed to delete relation %d/%d: %w", rel.GroupID, rel.ProductID, result.Error)
		}
		deleted += result.RowsAffected
	}
	return deleted, nil
}

func (c scanRelationColumn) filter(ctx context.Context, db *gorm.DB, id int64) ([]catalog.ProductGroupRelation, error) {
	var all []catalog.ProductGroupRelation
	if err := db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to scan relations: %w", err)
	}
	rels := []catalog.ProductGroupRelation{}
	for _, rel := range all {
		if c.key(rel) == id {
			rels = append(rels, rel)
		}
	}
	return rels, nil
}

// GormGroupRelationRepository implements GroupRelationRepository using GORM.
// Each key column is served by its index when present, otherwise by a scan.
type GormGroupRelationRepository struct {
	db        *gorm.DB
	byGroup   relationColumn
	byProduct relationColumn
}

// NewGroupRelationRepository selects a strategy per key column from the capability descriptor
func NewGroupRelationRepository(db *gorm.DB, caps IndexCapabilities, recorder *DegradationRecorder) *GormGroupRelationRepository {
	r := &GormGroupRelationRepository{db: db}

	if caps.RelationsGroupID {
		r.byGroup = indexedRelationColumn{column: "group_id", index: IndexRelationsGroupID}
	} else {
		r.byGroup = scanRelationColumn{
			column:   "group_id",
			index:    IndexRelationsGroupID,
			key:      func(rel catalog.ProductGroupRelation) int64 { return rel.GroupID },
			recorder: recorder,
		}
	}

	if caps.RelationsProductID {
		r.byProduct = indexedRelationColumn{column: "product_id", index: IndexRelationsProductID}
	} else {
		r.byProduct = scanRelationColumn{
			column:   "product_id",
			index:    IndexRelationsProductID,
			key:      func(rel catalog.ProductGroupRelation) int64 { return rel.ProductID },
			recorder: recorder,
		}
	}

	return r
}

// Insert adds a relation; an existing one yields catalog.ErrRelationExists
func (r *GormGroupRelationRepository) Insert(ctx context.Context, rel catalog.ProductGroupRelation) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return catalog.ErrRelationExists
		}
		return fmt.Errorf("failed to insert relation %d/%d: %w", rel.GroupID, rel.ProductID, result.Error)
	}
	if result.RowsAffected == 0 {
		return catalog.ErrRelationExists
	}
	return nil
}

// Delete removes a single relation
func (r *GormGroupRelationRepository) Delete(ctx context.Context, groupID, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND product_id = ?", groupID, productID).
		Delete(&catalog.ProductGroupRelation{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete relation %d/%d: %w", groupID, productID, err)
	}
	return nil
}

// FindByGroup returns the relations owned by a group
func (r *GormGroupRelationRepository) FindByGroup(ctx context.Context, groupID int64) ([]catalog.ProductGroupRelation, error) {
	return r.byGroup.find(ctx, r.db, groupID)
}

// FindByProduct returns the relations referencing a product
func (r *GormGroupRelationRepository) FindByProduct(ctx context.Context, productID int64) ([]catalog.ProductGroupRelation, error) {
	return r.byProduct.find(ctx, r.db, productID)
}

// DeleteByGroup removes every relation owned by a group
func (r *GormGroupRelationRepository) DeleteByGroup(ctx context.Context, groupID int64) (int64, error) {
	return r.byGroup.deleteAll(ctx, r.db, groupID)
}

// DeleteByProduct removes every relation referencing a product
func (r *GormGroupRelationRepository) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	return r.byProduct.deleteAll(ctx, r.db, productID)
}

var _ catalog.GroupRelationRepository = (*GormGroupRelationRepository)(nil)
