package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const storeProducts = "products"

// NewProductRepository selects the barcode lookup strategy from the capability descriptor
func NewProductRepository(db *gorm.DB, caps IndexCapabilities, recorder *DegradationRecorder) catalog.ProductRepository {
	base := gormProductRepository{db: db}
	if caps.ProductsBarcode {
		return &IndexedProductRepository{gormProductRepository: base}
	}
	return &ScanProductRepository{gormProductRepository: base, recorder: recorder}
}

// gormProductRepository holds the lookups that never depend on a secondary index
type gormProductRepository struct {
	db *gorm.DB
}

// FindByID finds a product by its ID
func (r *gormProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).Take(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &product, nil
}

// FindAll returns every product ordered by ID
func (r *gormProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	products := []catalog.Product{}
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindAllSorted orders by column and direction, which callers take from ProductSortFields
func (r *gormProductRepository) FindAllSorted(ctx context.Context, column, direction string) ([]catalog.Product, error) {
	products := []catalog.Product{}
	order := column + " " + direction
	if column != "id" {
		order += ", id"
	}
	if err := r.db.WithContext(ctx).Order(order).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create inserts a new product
func (r *gormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Save replaces an existing product
func (r *gormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to save product %d: %w", product.ID, err)
	}
	return nil
}

// Delete deletes a product by ID
func (r *gormProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&catalog.Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// ReassignCategory moves every product referencing category from to category to
func (r *gormProductRepository) ReassignCategory(ctx context.Context, from, to string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("category = ?", from).
		Update("category", to)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign category %q: %w", from, result.Error)
	}
	return result.RowsAffected, nil
}

// IndexedProductRepository resolves barcodes through idx_products_barcode.
// INDEXED BY turns a missing index into a query error instead of a silent scan.
type IndexedProductRepository struct {
	gormProductRepository
}

// FindByBarcode returns the product with the given barcode, or nil
func (r *IndexedProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	var products []catalog.Product
	err := r.db.WithContext(ctx).
		Raw("SELECT * FROM products INDEXED BY "+IndexProductsBarcode+" WHERE barcode = ? ORDER BY id LIMIT 1", barcode).
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up barcode: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// ScanProductRepository resolves barcodes by scanning the products table
type ScanProductRepository struct {
	gormProductRepository
	recorder *DegradationRecorder
}

// FindByBarcode returns the product with the given barcode, or nil
func (r *ScanProductRepository) FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == "" {
		return nil, nil
	}
	r.recorder.Record(ctx, storeProducts, IndexProductsBarcode, "barcode lookup")
	products, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Barcode == barcode {
			return &products[i], nil
		}
	}
	return nil, nil
}

var (
	_ catalog.ProductRepository = (*IndexedProductRepository)(nil)
	_ catalog.ProductRepository = (*ScanProductRepository)(nil)
)
