package persistence

import (
	"context"
	"fmt"

	"github.com/kasapos/backend/internal/domain/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// seedCatalog guarantees the sentinel category and exactly one default group.
// Extra default groups left by older builds are demoted, keeping the oldest.
func seedCatalog(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := NewGormCategoryRepository(tx)
		sentinel, err := categories.FindByName(ctx, catalog.SentinelCategoryName)
		if err != nil {
			return err
		}
		if sentinel == nil {
			c, err := catalog.NewCategory(catalog.CategoryInput{Name: catalog.SentinelCategoryName})
			if err != nil {
				return err
			}
			if err := categories.Create(ctx, c); err != nil {
				return err
			}
			log.Info("Seeded sentinel category", zap.Int64("category_id", c.ID))
		}

		var defaults []catalog.ProductGroup
		if err := tx.Where("is_default = ?", true).Order("id").Find(&defaults).Error; err != nil {
			return fmt.Errorf("failed to load default groups: %w", err)
		}

		if len(defaults) == 0 {
			g := &catalog.ProductGroup{Name: catalog.DefaultGroupName, Order: 0, IsDefault: true}
			if err := tx.Create(g).Error; err != nil {
				return fmt.Errorf("failed to seed default group: %w", err)
			}
			log.Info("Seeded default product group", zap.Int64("group_id", g.ID))
			return nil
		}

		if len(defaults) > 1 {
			ids := make([]int64, 0, len(defaults)-1)
			for _, g := range defaults[1:] {
				ids = append(ids, g.ID)
			}
			if err := tx.Model(&catalog.ProductGroup{}).Where("id IN ?", ids).Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to repair default groups: %w", err)
			}
			log.Warn("Demoted extra default product groups", zap.Int64s("group_ids", ids))
		}

		// the default group is virtual and never owns relations
		result := tx.Where("group_id = ?", defaults[0].ID).Delete(&catalog.ProductGroupRelation{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear default group relations: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			log.Warn("Removed relations owned by the default group", zap.Int64("count", result.RowsAffected))
		}
		return nil
	})
}
