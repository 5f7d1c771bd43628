package importapp

import (
	"context"
	"errors"
	"testing"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog is a mock implementation of Catalog
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalog) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalog) FindProductByBarcode(ctx context.Context, code string) (*catalog.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalog) AddProduct(ctx context.Context, in catalog.ProductInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalog) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockCatalog) AddCategory(ctx context.Context, in catalog.CategoryInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func normalized(line int, name, barcode, category string, stock int) NormalizedRow {
	price := decimal.NewFromInt(10)
	withVat := catalog.PriceWithVat(price, catalog.VatRate18)
	return NormalizedRow{
		Line: line,
		Product: &catalog.ProductInput{
			Name:          name,
			Barcode:       barcode,
			PurchasePrice: decimal.NewFromInt(5),
			SalePrice:     price,
			VatRate:       catalog.VatRate18,
			PriceWithVat:  &withVat,
			Category:      category,
			Stock:         stock,
		},
		StockProvided: true,
	}
}

func existingProduct(id int64, barcode string, stock int) catalog.Product {
	p := catalog.Product{Name: "Eski", Barcode: barcode, Category: "Genel", Stock: stock, ImageURL: "old.png"}
	p.ID = id
	return p
}

func TestReconciler_Classify(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	store.On("ListProducts", ctx).Return([]catalog.Product{existingProduct(7, "111", 40)}, nil)
	store.On("ListCategories", ctx).Return([]catalog.Category{{Name: "Genel"}, {Name: "İÇECEK"}}, nil)

	keepStock := normalized(2, "Çay", "111", "içecek", 0)
	keepStock.StockProvided = false
	rows := []NormalizedRow{
		keepStock,
		normalized(3, "Su", "222", "Genel", 1),
		normalized(4, "Sabun", "333", "Temizlik", 1),
		normalized(5, "Su 1L", "222", "Genel", 9),
		{Line: 6, Warning: "barcode is empty"},
		normalized(7, "Deterjan", "444", "TEMİZLİK", 2),
	}

	plan, err := NewReconciler(store, nil, 10).Classify(ctx, rows)

	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 4, New: 3, Update: 1, NewCategories: []string{"Temizlik"}}, plan.Summary)
	require.Len(t, plan.Candidates, 4)

	update := plan.Candidates[0]
	assert.True(t, update.IsUpdate())
	assert.Equal(t, int64(7), update.ExistingID)
	assert.True(t, update.KeepStock)
	assert.Equal(t, "old.png", update.Input.ImageURL)
	assert.Equal(t, "İÇECEK", update.Input.Category, "existing category spelling is used")
	assert.Equal(t, "Temizlik", plan.Candidates[2].Input.Category)
	assert.Equal(t, "Temizlik", plan.Candidates[3].Input.Category, "first spelling in the file wins")

	assert.Equal(t, 5, plan.Candidates[1].Line, "later duplicate replaces the earlier row in place")
	assert.Equal(t, "Su 1L", plan.Candidates[1].Input.Name)

	require.Len(t, plan.Superseded, 1)
	assert.Equal(t, 3, plan.Superseded[0].Row)
	assert.Equal(t, csvimport.ErrCodeImportDuplicateInFile, plan.Superseded[0].Code)
	store.AssertExpectations(t)
}

func TestReconciler_ClassifyStoreError(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	store.On("ListProducts", ctx).Return(nil, errors.New("disk I/O error"))

	_, err := NewReconciler(store, nil, 10).Classify(ctx, []NormalizedRow{normalized(2, "Su", "1", "Genel", 1)})

	assert.ErrorContains(t, err, "disk I/O error")
}

func TestReconciler_CommitRowConstraintsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	plan := &Plan{
		Candidates: []Candidate{
			{Line: 2, Input: *normalized(2, "A", "1", "Yeni", 1).Product},
			{Line: 3, Input: *normalized(3, "B", "2", "Yeni", 1).Product},
			{Line: 4, Input: *normalized(4, "C", "3", "Yeni", 1).Product, ExistingID: 9},
		},
		Summary: Summary{Total: 3, New: 2, Update: 1, NewCategories: []string{"Yeni", "Var"}},
	}

	store.On("AddCategory", ctx, catalog.CategoryInput{Name: "Yeni", Icon: catalog.DefaultCategoryIcon}).Return(int64(5), nil)
	store.On("AddCategory", ctx, catalog.CategoryInput{Name: "Var", Icon: catalog.DefaultCategoryIcon}).Return(int64(0), shared.ErrDuplicateCategory)
	store.On("FindProductByBarcode", ctx, "1").Return(nil, shared.ErrNotFound)
	store.On("FindProductByBarcode", ctx, "2").Return(nil, shared.ErrNotFound)
	store.On("AddProduct", ctx, plan.Candidates[0].Input).Return(int64(11), nil)
	store.On("AddProduct", ctx, plan.Candidates[1].Input).Return(int64(0), shared.ErrDuplicateBarcode)
	store.On("UpdateProduct", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
		return p.ID == 9 && p.Barcode == "3"
	})).Return(nil)

	report, err := NewReconciler(store, nil, 10).Commit(ctx, plan)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"Yeni"}, report.CategoriesCreated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Equal(t, csvimport.ErrCodeImportDuplicateInDB, report.Errors[0].Code)
	store.AssertExpectations(t)
}

func TestReconciler_CommitStoreErrorAborts(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	plan := &Plan{
		Candidates: []Candidate{
			{Line: 2, Input: *normalized(2, "A", "1", "Genel", 1).Product},
			{Line: 3, Input: *normalized(3, "B", "2", "Genel", 1).Product},
		},
		Summary: Summary{Total: 2, New: 2, NewCategories: []string{}},
	}
	store.On("FindProductByBarcode", ctx, "1").Return(nil, shared.ErrNotFound)
	store.On("AddProduct", ctx, plan.Candidates[0].Input).Return(int64(0), errors.New("database is locked"))

	report, err := NewReconciler(store, nil, 10).Commit(ctx, plan)

	require.ErrorContains(t, err, "import line 2")
	assert.Equal(t, 0, report.Inserted)
	store.AssertNotCalled(t, "FindProductByBarcode", ctx, "2")
}

func TestReconciler_CommitRechecksNewRows(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	plan := &Plan{
		Candidates: []Candidate{{Line: 2, Input: *normalized(2, "A", "1", "Genel", 4).Product}},
		Summary:    Summary{Total: 1, New: 1, NewCategories: []string{}},
	}
	raced := existingProduct(21, "1", 0)
	store.On("FindProductByBarcode", ctx, "1").Return(&raced, nil)
	store.On("UpdateProduct", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
		return p.ID == 21 && p.Stock == 4
	})).Return(nil)

	report, err := NewReconciler(store, nil, 10).Commit(ctx, plan)

	require.NoError(t, err)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 1, report.Updated)
	store.AssertNotCalled(t, "AddProduct", mock.Anything, mock.Anything)
}

func TestReconciler_CommitKeepsStock(t *testing.T) {
	ctx := context.Background()
	store := new(MockCatalog)
	plan := &Plan{
		Candidates: []Candidate{{Line: 2, Input: *normalized(2, "A", "1", "Genel", 0).Product, ExistingID: 3, KeepStock: true}},
		Summary:    Summary{Total: 1, Update: 1, NewCategories: []string{}},
	}
	current := existingProduct(3, "1", 17)
	store.On("FindProductByBarcode", ctx, "1").Return(&current, nil)
	store.On("UpdateProduct", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
		return p.ID == 3 && p.Stock == 17
	})).Return(nil)

	report, err := NewReconciler(store, nil, 10).Commit(ctx, plan)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	store.AssertExpectations(t)
}
