package persistence

import (
	"context"
	"strings"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AddProduct validates and inserts a product, returning its new ID.
// A non-empty barcode already held by another product is rejected.
func (s *CatalogStore) AddProduct(ctx context.Context, in catalog.ProductInput) (int64, error) {
	p, err := catalog.NewProduct(in)
	if err != nil {
		return 0, err
	}

	err = s.write(ctx, "AddProduct", func(repos catalog.Repositories) error {
		if err := ensureBarcodeFree(ctx, repos.Products(), p.Barcode, 0); err != nil {
			return err
		}
		return repos.Products().Create(ctx, p)
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

// UpdateProduct replaces every mutable field of the stored product with p's.
// On success p is refreshed with the stored timestamps.
func (s *CatalogStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	return s.write(ctx, "UpdateProduct", func(repos catalog.Repositories) error {
		existing, err := repos.Products().FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := existing.Replace(p.Input()); err != nil {
			return err
		}
		if err := ensureBarcodeFree(ctx, repos.Products(), existing.Barcode, existing.ID); err != nil {
			return err
		}
		if err := repos.Products().Save(ctx, existing); err != nil {
			return err
		}
		*p = *existing
		return nil
	})
}

// DeleteProduct removes the product and every group relation referencing it
func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	return s.write(ctx, "DeleteProduct", func(repos catalog.Repositories) error {
		if _, err := repos.Products().FindByID(ctx, id); err != nil {
			return err
		}
		if _, err := repos.Relations().DeleteByProduct(ctx, id); err != nil {
			return err
		}
		return repos.Products().Delete(ctx, id)
	})
}

// GetProduct returns a copy of the stored product
func (s *CatalogStore) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	return s.reads.Products().FindByID(ctx, id)
}

// ListProducts returns every product ordered by ID
func (s *CatalogStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.reads.Products().FindAll(ctx)
}

// ListProductsSorted orders the product list by sortBy and sortOrder.
// Unknown fields fall back to id, unknown directions to ascending.
func (s *CatalogStore) ListProductsSorted(ctx context.Context, sortBy, sortOrder string) ([]catalog.Product, error) {
	column := ValidateSortField(sortBy, ProductSortFields, "id")
	return s.reads.Products().FindAllSorted(ctx, column, ValidateSortOrder(sortOrder, "ASC"))
}

// FindProductByBarcode returns the product carrying code; an unknown or empty code is NOT_FOUND
func (s *CatalogStore) FindProductByBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	p, err := s.reads.Products().FindByBarcode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// UpdateStock adds delta to the product's stock and notifies subscribers after commit.
// A missing product is a no-op; a result below zero is rejected.
func (s *CatalogStore) UpdateStock(ctx context.Context, id int64, delta int) error {
	var evt *catalog.StockChangedEvent
	err := s.write(ctx, "UpdateStock", func(repos catalog.Repositories) error {
		p, err := repos.Products().FindByID(ctx, id)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil
			}
			return err
		}
		previous := p.Stock
		if err := p.AdjustStock(delta); err != nil {
			return err
		}
		if err := repos.Products().Save(ctx, p); err != nil {
			return err
		}
		evt = catalog.NewStockChangedEvent(*p, delta, previous)
		return nil
	})
	if err != nil {
		return err
	}
	if evt == nil {
		s.logger.Debug("Stock update for missing product ignored", zap.Int64("product_id", id))
		return nil
	}

	s.metrics.RecordStockChange(ctx)
	return s.bus.Publish(ctx, evt)
}

func ensureBarcodeFree(ctx context.Context, products catalog.ProductRepository, barcode string, selfID int64) error {
	if barcode == "" {
		return nil
	}
	holder, err := products.FindByBarcode(ctx, barcode)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != selfID {
		return shared.ErrDuplicateBarcode
	}
	return nil
}
