package catalog

import (
	"context"
	"errors"
)

// ErrRelationExists is returned by GroupRelationRepository.Insert for a duplicate key
var ErrRelationExists = errors.New("product group relation already exists")

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID; missing products yield shared.ErrNotFound
	FindByID(ctx context.Context, id int64) (*Product, error)

	// FindAll returns every product ordered by ID
	FindAll(ctx context.Context) ([]Product, error)

	// FindAllSorted returns every product ordered by a whitelisted column, ties broken by ID
	FindAllSorted(ctx context.Context, column, direction string) ([]Product, error)

	// FindByBarcode returns the product with the given barcode, or nil if none exists
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// Create inserts a new product and assigns its ID
	Create(ctx context.Context, product *Product) error

	// Save replaces an existing product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product by ID
	Delete(ctx context.Context, id int64) error

	// ReassignCategory moves every product in category from to category to
	ReassignCategory(ctx context.Context, from, to string) (int64, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID; missing categories yield shared.ErrNotFound
	FindByID(ctx context.Context, id int64) (*Category, error)

	// FindAll returns every category ordered by ID
	FindAll(ctx context.Context) ([]Category, error)

	// FindByName returns the category whose name matches case-insensitively, or nil
	FindByName(ctx context.Context, name string) (*Category, error)

	// Create inserts a new category and assigns its ID
	Create(ctx context.Context, category *Category) error

	// Save replaces an existing category
	Save(ctx context.Context, category *Category) error

	// Delete deletes a category by ID
	Delete(ctx context.Context, id int64) error
}

// ProductGroupRepository defines the interface for product group persistence
type ProductGroupRepository interface {
	// FindByID finds a group by its ID; missing groups yield shared.ErrNotFound
	FindByID(ctx context.Context, id int64) (*ProductGroup, error)

	// FindAllOrdered returns every group ascending by Order, ties broken by ID
	FindAllOrdered(ctx context.Context) ([]ProductGroup, error)

	// FindDefault returns the default group, or nil if none exists
	FindDefault(ctx context.Context) (*ProductGroup, error)

	// MaxOrder returns the highest Order among all groups, or -1 when there are none
	MaxOrder(ctx context.Context) (int, error)

	// Create inserts a new group and assigns its ID
	Create(ctx context.Context, group *ProductGroup) error

	// Save replaces an existing group
	Save(ctx context.Context, group *ProductGroup) error

	// Delete deletes a group by ID
	Delete(ctx context.Context, id int64) error
}

// GroupRelationRepository defines the interface for group membership persistence
type GroupRelationRepository interface {
	// Insert adds a relation; an existing relation yields ErrRelationExists
	Insert(ctx context.Context, rel ProductGroupRelation) error

	// Delete removes a single relation; deleting a missing relation is not an error
	Delete(ctx context.Context, groupID, productID int64) error

	// FindByGroup returns the relations owned by a group
	FindByGroup(ctx context.Context, groupID int64) ([]ProductGroupRelation, error)

	// FindByProduct returns the relations referencing a product
	FindByProduct(ctx context.Context, productID int64) ([]ProductGroupRelation, error)

	// DeleteByGroup removes every relation owned by a group
	DeleteByGroup(ctx context.Context, groupID int64) (int64, error)

	// DeleteByProduct removes every relation referencing a product
	DeleteByProduct(ctx context.Context, productID int64) (int64, error)
}

// Repositories provides access to all catalog repositories.
// Within a transaction scope every repository shares the same transaction.
type Repositories interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Groups() ProductGroupRepository
	Relations() GroupRelationRepository
}

// TransactionScope runs a unit of work against the catalog atomically.
// If fn returns an error the transaction is rolled back, otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}
