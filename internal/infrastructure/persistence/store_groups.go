package persistence

import (
	"context"
	"errors"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
)

// GetProductGroups returns every group ascending by order
func (s *CatalogStore) GetProductGroups(ctx context.Context) ([]catalog.ProductGroup, error) {
	return s.reads.Groups().FindAllOrdered(ctx)
}

// AddProductGroup appends a non-default group after the current last one
func (s *CatalogStore) AddProductGroup(ctx context.Context, name string) (int64, error) {
	g, err := catalog.NewProductGroup(name, 0)
	if err != nil {
		return 0, err
	}

	err = s.write(ctx, "AddProductGroup", func(repos catalog.Repositories) error {
		last, err := repos.Groups().MaxOrder(ctx)
		if err != nil {
			return err
		}
		g.Order = last + 1
		return repos.Groups().Create(ctx, g)
	})
	if err != nil {
		return 0, err
	}
	return g.ID, nil
}

// UpdateProductGroup renames the default group, or replaces a non-default one.
// IsDefault is never changed through this path.
func (s *CatalogStore) UpdateProductGroup(ctx context.Context, g *catalog.ProductGroup) error {
	return s.write(ctx, "UpdateProductGroup", func(repos catalog.Repositories) error {
		existing, err := repos.Groups().FindByID(ctx, g.ID)
		if err != nil {
			return err
		}
		if err := existing.ApplyUpdate(g); err != nil {
			return err
		}
		if err := repos.Groups().Save(ctx, existing); err != nil {
			return err
		}
		*g = *existing
		return nil
	})
}

// DeleteProductGroup deletes a non-default group and its relations
func (s *CatalogStore) DeleteProductGroup(ctx context.Context, id int64) error {
	return s.write(ctx, "DeleteProductGroup", func(repos catalog.Repositories) error {
		g, err := repos.Groups().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if g.IsDefault {
			return shared.ErrDefaultGroupProtected
		}
		if _, err := repos.Relations().DeleteByGroup(ctx, id); err != nil {
			return err
		}
		return repos.Groups().Delete(ctx, id)
	})
}

// AddProductToGroup records membership; adding twice, or adding to the default group, is a no-op
func (s *CatalogStore) AddProductToGroup(ctx context.Context, groupID, productID int64) error {
	return s.write(ctx, "AddProductToGroup", func(repos catalog.Repositories) error {
		g, err := repos.Groups().FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if g.IsDefault {
			return nil
		}
		if _, err := repos.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		err = repos.Relations().Insert(ctx, catalog.ProductGroupRelation{GroupID: groupID, ProductID: productID})
		if errors.Is(err, catalog.ErrRelationExists) {
			return nil
		}
		return err
	})
}

// RemoveProductFromGroup drops membership; removing from the default group is a no-op
func (s *CatalogStore) RemoveProductFromGroup(ctx context.Context, groupID, productID int64) error {
	return s.write(ctx, "RemoveProductFromGroup", func(repos catalog.Repositories) error {
		g, err := repos.Groups().FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if g.IsDefault {
			return nil
		}
		return repos.Relations().Delete(ctx, groupID, productID)
	})
}

// GetGroupProducts returns the IDs of the group's explicit members.
// The default group has none; it stands for the whole catalog.
func (s *CatalogStore) GetGroupProducts(ctx context.Context, groupID int64) ([]int64, error) {
	g, err := s.reads.Groups().FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := []int64{}
	if g.IsDefault {
		return ids, nil
	}
	rels, err := s.reads.Relations().FindByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		ids = append(ids, rel.ProductID)
	}
	return ids, nil
}
