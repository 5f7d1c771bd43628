package persistence

import (
	"context"

	"github.com/kasapos/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormTransactionScope implements catalog.TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db       *gorm.DB
	caps     IndexCapabilities
	recorder *DegradationRecorder
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, caps IndexCapabilities, recorder *DegradationRecorder) *GormTransactionScope {
	return &GormTransactionScope{db: db, caps: caps, recorder: recorder}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos catalog.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx, s.caps, s.recorder))
	})
}

// gormRepositories provides access to all repositories bound to one connection or transaction.
type gormRepositories struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	groups     catalog.ProductGroupRepository
	relations  catalog.GroupRelationRepository
}

// NewRepositories builds the repository set over db; inside Execute db is the transaction.
func NewRepositories(db *gorm.DB, caps IndexCapabilities, recorder *DegradationRecorder) catalog.Repositories {
	return &gormRepositories{
		products:   NewProductRepository(db, caps, recorder),
		categories: NewGormCategoryRepository(db),
		groups:     NewProductGroupRepository(db, caps, recorder),
		relations:  NewGroupRelationRepository(db, caps, recorder),
	}
}

// Products returns the product repository.
func (r *gormRepositories) Products() catalog.ProductRepository { return r.products }

// Categories returns the category repository.
func (r *gormRepositories) Categories() catalog.CategoryRepository { return r.categories }

// Groups returns the product group repository.
func (r *gormRepositories) Groups() catalog.ProductGroupRepository { return r.groups }

// Relations returns the group relation repository.
func (r *gormRepositories) Relations() catalog.GroupRelationRepository { return r.relations }

// Ensure GormTransactionScope implements TransactionScope
var _ catalog.TransactionScope = (*GormTransactionScope)(nil)
