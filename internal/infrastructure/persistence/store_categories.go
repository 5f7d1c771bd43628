package persistence

import (
	"context"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AddCategory inserts a category whose name is unique ignoring case
func (s *CatalogStore) AddCategory(ctx context.Context, in catalog.CategoryInput) (int64, error) {
	c, err := catalog.NewCategory(in)
	if err != nil {
		return 0, err
	}

	err = s.write(ctx, "AddCategory", func(repos catalog.Repositories) error {
		existing, err := repos.Categories().FindByName(ctx, c.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.ErrDuplicateCategory
		}
		return repos.Categories().Create(ctx, c)
	})
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// UpdateCategory replaces the category's fields. A rename is checked for
// uniqueness and carried over to the products that referenced the old name.
func (s *CatalogStore) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	in := catalog.CategoryInput{Name: c.Name, Icon: c.Icon, ParentID: c.ParentID, Level: c.Level, Path: c.Path}
	if err := catalog.Validate(in); err != nil {
		return err
	}

	return s.write(ctx, "UpdateCategory", func(repos catalog.Repositories) error {
		existing, err := repos.Categories().FindByID(ctx, c.ID)
		if err != nil {
			return err
		}
		if existing.IsSentinel() && catalog.CategoryKey(in.Name) != existing.NameKey {
			return shared.ErrSentinelCategoryProtected
		}
		other, err := repos.Categories().FindByName(ctx, in.Name)
		if err != nil {
			return err
		}
		if other != nil && other.ID != existing.ID {
			return shared.ErrDuplicateCategory
		}

		oldName := existing.Name
		existing.Rename(in.Name)
		existing.Icon = in.Icon
		if existing.Icon == "" {
			existing.Icon = catalog.DefaultCategoryIcon
		}
		existing.ParentID = in.ParentID
		existing.Level = in.Level
		existing.Path = in.Path
		if err := repos.Categories().Save(ctx, existing); err != nil {
			return err
		}

		if oldName != existing.Name {
			moved, err := repos.Products().ReassignCategory(ctx, oldName, existing.Name)
			if err != nil {
				return err
			}
			s.logger.Debug("Category renamed",
				zap.String("from", oldName),
				zap.String("to", existing.Name),
				zap.Int64("products", moved))
		}
		*c = *existing
		return nil
	})
}

// DeleteCategory moves the category's products to the sentinel category, then deletes it
func (s *CatalogStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.write(ctx, "DeleteCategory", func(repos catalog.Repositories) error {
		c, err := repos.Categories().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if c.IsSentinel() {
			return shared.ErrSentinelCategoryProtected
		}
		moved, err := repos.Products().ReassignCategory(ctx, c.Name, catalog.SentinelCategoryName)
		if err != nil {
			return err
		}
		if err := repos.Categories().Delete(ctx, id); err != nil {
			return err
		}
		s.logger.Debug("Category deleted",
			zap.String("category", c.Name),
			zap.Int64("reassigned_products", moved))
		return nil
	})
}

// GetCategory returns a copy of the stored category
func (s *CatalogStore) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	return s.reads.Categories().FindByID(ctx, id)
}

// ListCategories returns every category ordered by ID
func (s *CatalogStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return s.reads.Categories().FindAll(ctx)
}
