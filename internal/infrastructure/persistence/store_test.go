package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/kasapos/backend/internal/infrastructure/config"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gorm.io/gorm"
)

func memoryConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{Path: ":memory:", AutoMigrate: true, LogLevel: "silent"}
}

func newTestStore(t *testing.T, opts ...StoreOption) *CatalogStore {
	t.Helper()
	store, err := OpenCatalogStore(context.Background(), memoryConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func productInput(name, barcode string) catalog.ProductInput {
	return catalog.ProductInput{
		Name:          name,
		Barcode:       barcode,
		PurchasePrice: decimal.NewFromInt(50),
		SalePrice:     decimal.NewFromInt(100),
		VatRate:       catalog.VatRate18,
		Stock:         5,
	}
}

func defaultGroup(t *testing.T, store *CatalogStore) catalog.ProductGroup {
	t.Helper()
	groups, err := store.GetProductGroups(context.Background())
	require.NoError(t, err)
	for _, g := range groups {
		if g.IsDefault {
			return g
		}
	}
	t.Fatal("no default group")
	return catalog.ProductGroup{}
}

var allIndexes = []string{IndexProductsBarcode, IndexGroupsOrder, IndexRelationsGroupID, IndexRelationsProductID}

// storeModes runs a test against a fully indexed store and one with every index dropped
func storeModes(t *testing.T, fn func(t *testing.T, store *CatalogStore)) {
	t.Run("indexed", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("degraded", func(t *testing.T) { fn(t, newTestStore(t, WithSkippedIndexes(allIndexes...))) })
}

func TestOpenCatalogStore_Seeds(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	assert.Equal(t, FullCapabilities(), store.Capabilities())

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, catalog.SentinelCategoryName, categories[0].Name)

	groups, err := store.GetProductGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsDefault)
	assert.Equal(t, catalog.DefaultGroupName, groups[0].Name)
	assert.Equal(t, 0, groups[0].Order)
}

func TestSeedCatalog_RepairsDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	db := store.db.DB

	extra := &catalog.ProductGroup{Name: "Eski", Order: 3, IsDefault: true}
	require.NoError(t, db.Create(extra).Error)
	def := defaultGroup(t, store)
	require.NoError(t, db.Create(&catalog.ProductGroupRelation{GroupID: def.ID, ProductID: 42}).Error)

	require.NoError(t, seedCatalog(ctx, db, store.logger))

	var defaults []catalog.ProductGroup
	require.NoError(t, db.Where("is_default = ?", true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	assert.Equal(t, def.ID, defaults[0].ID)

	var count int64
	require.NoError(t, db.Model(&catalog.ProductGroupRelation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCatalogStore_AddProduct(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()

		t.Run("duplicate barcode is rejected", func(t *testing.T) {
			id, err := store.AddProduct(ctx, productInput("A", "123"))
			require.NoError(t, err)
			assert.Positive(t, id)

			_, err = store.AddProduct(ctx, productInput("B", "123"))
			require.ErrorIs(t, err, shared.ErrDuplicateBarcode)

			products, err := store.ListProducts(ctx)
			require.NoError(t, err)
			require.Len(t, products, 1)
			assert.Equal(t, "A", products[0].Name)
		})

		t.Run("empty barcodes never collide", func(t *testing.T) {
			_, err := store.AddProduct(ctx, productInput("No code 1", ""))
			require.NoError(t, err)
			_, err = store.AddProduct(ctx, productInput("No code 2", ""))
			require.NoError(t, err)
		})

		t.Run("derives price with vat and sentinel category", func(t *testing.T) {
			id, err := store.AddProduct(ctx, productInput("Ayran", "869"))
			require.NoError(t, err)
			p, err := store.GetProduct(ctx, id)
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(118).Equal(p.PriceWithVat), p.PriceWithVat.String())
			assert.Equal(t, catalog.SentinelCategoryName, p.Category)
		})

		t.Run("invalid input", func(t *testing.T) {
			in := productInput("", "999")
			_, err := store.AddProduct(ctx, in)
			require.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	})
}

func TestCatalogStore_UpdateProduct(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()
		idA, err := store.AddProduct(ctx, productInput("A", "111"))
		require.NoError(t, err)
		idB, err := store.AddProduct(ctx, productInput("B", "222"))
		require.NoError(t, err)

		b, err := store.GetProduct(ctx, idB)
		require.NoError(t, err)

		b.Barcode = "111"
		require.ErrorIs(t, store.UpdateProduct(ctx, b), shared.ErrDuplicateBarcode)

		b.Barcode = "222"
		b.Name = "B2"
		b.Stock = 9
		require.NoError(t, store.UpdateProduct(ctx, b))

		got, err := store.GetProduct(ctx, idB)
		require.NoError(t, err)
		assert.Equal(t, "B2", got.Name)
		assert.Equal(t, 9, got.Stock)

		missing := &catalog.Product{Name: "ghost"}
		missing.ID = idA + idB + 100
		require.ErrorIs(t, store.UpdateProduct(ctx, missing), shared.ErrNotFound)
	})
}

func TestCatalogStore_FindProductByBarcode(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()
		id, err := store.AddProduct(ctx, productInput("A", "8690001"))
		require.NoError(t, err)

		p, err := store.FindProductByBarcode(ctx, " 8690001 ")
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)

		_, err = store.FindProductByBarcode(ctx, "nope")
		assert.True(t, shared.IsNotFound(err))
		_, err = store.FindProductByBarcode(ctx, "")
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestCatalogStore_Categories(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()

		id, err := store.AddCategory(ctx, catalog.CategoryInput{Name: "Süt Ürünleri"})
		require.NoError(t, err)

		_, err = store.AddCategory(ctx, catalog.CategoryInput{Name: "SÜT ÜRÜNLERİ"})
		require.ErrorIs(t, err, shared.ErrDuplicateCategory)

		in := productInput("Peynir", "1")
		in.Category = "Süt Ürünleri"
		pid, err := store.AddProduct(ctx, in)
		require.NoError(t, err)

		t.Run("rename propagates to products", func(t *testing.T) {
			c, err := store.GetCategory(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, catalog.DefaultCategoryIcon, c.Icon)
			c.Name = "Şarküteri"
			require.NoError(t, store.UpdateCategory(ctx, c))

			p, err := store.GetProduct(ctx, pid)
			require.NoError(t, err)
			assert.Equal(t, "Şarküteri", p.Category)
		})

		t.Run("delete reassigns products to sentinel", func(t *testing.T) {
			require.NoError(t, store.DeleteCategory(ctx, id))

			p, err := store.GetProduct(ctx, pid)
			require.NoError(t, err)
			assert.Equal(t, catalog.SentinelCategoryName, p.Category)

			require.ErrorIs(t, store.DeleteCategory(ctx, id), shared.ErrNotFound)
		})

		t.Run("sentinel is protected", func(t *testing.T) {
			categories, err := store.ListCategories(ctx)
			require.NoError(t, err)
			require.Len(t, categories, 1)
			sentinel := categories[0]

			require.ErrorIs(t, store.DeleteCategory(ctx, sentinel.ID), shared.ErrSentinelCategoryProtected)

			sentinel.Name = "Diğer"
			require.ErrorIs(t, store.UpdateCategory(ctx, &sentinel), shared.ErrSentinelCategoryProtected)

			sentinel.Name = catalog.SentinelCategoryName
			sentinel.Icon = "star"
			require.NoError(t, store.UpdateCategory(ctx, &sentinel))
		})
	})
}

func TestCatalogStore_UpdateStock(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()
		id, err := store.AddProduct(ctx, productInput("A", "1"))
		require.NoError(t, err)

		var mu sync.Mutex
		var events []*catalog.StockChangedEvent
		var committed []int
		sub := store.OnStockChange(func(ctx context.Context, evt *catalog.StockChangedEvent) {
			p, err := store.GetProduct(ctx, evt.Product.ID)
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			events = append(events, evt)
			committed = append(committed, p.Stock)
		})

		require.NoError(t, store.UpdateStock(ctx, id, -2))
		require.Len(t, events, 1)
		assert.Equal(t, 3, events[0].Product.Stock)
		assert.Equal(t, 5, events[0].PreviousStock)
		assert.Equal(t, -2, events[0].Delta)
		assert.Equal(t, []int{3}, committed)

		t.Run("below zero is rejected without event", func(t *testing.T) {
			require.ErrorIs(t, store.UpdateStock(ctx, id, -10), shared.ErrInsufficientStock)
			p, err := store.GetProduct(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 3, p.Stock)
			assert.Len(t, events, 1)
		})

		t.Run("missing product is a silent no-op", func(t *testing.T) {
			require.NoError(t, store.UpdateStock(ctx, id+1000, 4))
			assert.Len(t, events, 1)
		})

		t.Run("unsubscribed listener is not called", func(t *testing.T) {
			store.OffStockChange(sub)
			store.OffStockChange(sub)
			require.NoError(t, store.UpdateStock(ctx, id, 1))
			assert.Len(t, events, 1)
		})
	})
}

func TestCatalogStore_ProductGroups(t *testing.T) {
	storeModes(t, func(t *testing.T, store *CatalogStore) {
		ctx := context.Background()
		def := defaultGroup(t, store)

		g1, err := store.AddProductGroup(ctx, "İçecekler")
		require.NoError(t, err)
		g2, err := store.AddProductGroup(ctx, "Atıştırmalık")
		require.NoError(t, err)

		_, err = store.AddProductGroup(ctx, "  ")
		require.ErrorIs(t, err, shared.ErrInvalidInput)

		groups, err := store.GetProductGroups(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 3)
		assert.Equal(t, []int64{def.ID, g1, g2}, []int64{groups[0].ID, groups[1].ID, groups[2].ID})
		assert.Equal(t, []int{0, 1, 2}, []int{groups[0].Order, groups[1].Order, groups[2].Order})

		p1, err := store.AddProduct(ctx, productInput("Kola", "10"))
		require.NoError(t, err)
		p2, err := store.AddProduct(ctx, productInput("Su", "20"))
		require.NoError(t, err)

		t.Run("relation insert is idempotent", func(t *testing.T) {
			require.NoError(t, store.AddProductToGroup(ctx, g1, p1))
			require.NoError(t, store.AddProductToGroup(ctx, g1, p1))
			ids, err := store.GetGroupProducts(ctx, g1)
			require.NoError(t, err)
			assert.Equal(t, []int64{p1}, ids)
		})

		t.Run("default group is virtual", func(t *testing.T) {
			require.NoError(t, store.AddProductToGroup(ctx, def.ID, p1))
			ids, err := store.GetGroupProducts(ctx, def.ID)
			require.NoError(t, err)
			assert.NotNil(t, ids)
			assert.Empty(t, ids)
			require.NoError(t, store.RemoveProductFromGroup(ctx, def.ID, p1))
			require.ErrorIs(t, store.DeleteProductGroup(ctx, def.ID), shared.ErrDefaultGroupProtected)
		})

		t.Run("unknown group or product", func(t *testing.T) {
			require.ErrorIs(t, store.AddProductToGroup(ctx, g2+100, p1), shared.ErrNotFound)
			require.ErrorIs(t, store.AddProductToGroup(ctx, g2, p2+100), shared.ErrNotFound)
			_, err := store.GetGroupProducts(ctx, g2+100)
			require.ErrorIs(t, err, shared.ErrNotFound)
		})

		t.Run("remove drops membership", func(t *testing.T) {
			require.NoError(t, store.AddProductToGroup(ctx, g2, p2))
			require.NoError(t, store.RemoveProductFromGroup(ctx, g2, p2))
			require.NoError(t, store.RemoveProductFromGroup(ctx, g2, p2))
			ids, err := store.GetGroupProducts(ctx, g2)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})

		t.Run("update keeps default flag", func(t *testing.T) {
			d := def
			d.Name = "Hepsi"
			d.Order = 7
			require.NoError(t, store.UpdateProductGroup(ctx, &d))
			assert.Equal(t, "Hepsi", d.Name)
			assert.Equal(t, 0, d.Order)
			assert.True(t, d.IsDefault)

			g := &catalog.ProductGroup{Name: "Soğuk İçecek", Order: 9, IsDefault: true}
			g.ID = g1
			require.NoError(t, store.UpdateProductGroup(ctx, g))
			assert.Equal(t, 9, g.Order)
			assert.False(t, g.IsDefault)
		})

		t.Run("delete group removes its relations", func(t *testing.T) {
			require.NoError(t, store.AddProductToGroup(ctx, g1, p2))
			require.NoError(t, store.DeleteProductGroup(ctx, g1))

			rels, err := store.reads.Relations().FindByProduct(ctx, p1)
			require.NoError(t, err)
			assert.Empty(t, rels)
			rels, err = store.reads.Relations().FindByProduct(ctx, p2)
			require.NoError(t, err)
			assert.Empty(t, rels)

			require.ErrorIs(t, store.DeleteProductGroup(ctx, g1), shared.ErrNotFound)
		})

		t.Run("delete product removes its relations", func(t *testing.T) {
			require.NoError(t, store.AddProductToGroup(ctx, g2, p1))
			require.NoError(t, store.DeleteProduct(ctx, p1))
			ids, err := store.GetGroupProducts(ctx, g2)
			require.NoError(t, err)
			assert.Empty(t, ids)
			require.ErrorIs(t, store.DeleteProduct(ctx, p1), shared.ErrNotFound)
		})
	})
}

func TestCatalogStore_DeleteProductRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	g, err := store.AddProductGroup(ctx, "Raf")
	require.NoError(t, err)
	p, err := store.AddProduct(ctx, productInput("A", "1"))
	require.NoError(t, err)
	require.NoError(t, store.AddProductToGroup(ctx, g, p))

	injected := errors.New("injected failure")
	require.NoError(t, store.db.DB.Callback().Delete().Before("gorm:delete").Register("test:fail_products", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" {
			_ = tx.AddError(injected)
		}
	}))

	require.ErrorIs(t, store.DeleteProduct(ctx, p), injected)

	ids, err := store.GetGroupProducts(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, []int64{p}, ids)
	_, err = store.GetProduct(ctx, p)
	require.NoError(t, err)
}

func TestCatalogStore_DegradedMode(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewCatalogMetrics(provider.Meter("test"))
	require.NoError(t, err)

	store := newTestStore(t, WithSkippedIndexes(IndexProductsBarcode), WithMetrics(metrics))

	caps := store.Capabilities()
	assert.False(t, caps.ProductsBarcode)
	assert.True(t, caps.GroupsOrder)
	assert.Equal(t, []string{IndexProductsBarcode}, caps.Missing())

	_, err = store.AddProduct(ctx, productInput("A", "X"))
	require.NoError(t, err)
	_, err = store.AddProduct(ctx, productInput("B", "X"))
	require.ErrorIs(t, err, shared.ErrDuplicateBarcode)

	degradations := store.Degradations()
	require.Len(t, degradations, 2)
	for _, d := range degradations {
		assert.Equal(t, IndexProductsBarcode, d.Index)
		assert.Equal(t, "products", d.Store)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	var scans int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != telemetry.MetricFallbackScans {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				scans += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), scans)
}

func TestIndexedRepository_MissingIndexIsAnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithSkippedIndexes(IndexProductsBarcode, IndexRelationsGroupID))

	products := NewProductRepository(store.db.DB, FullCapabilities(), nil)
	_, err := products.FindByBarcode(ctx, "1")
	require.Error(t, err)

	relations := NewGroupRelationRepository(store.db.DB, FullCapabilities(), nil)
	_, err = relations.FindByGroup(ctx, 1)
	require.Error(t, err)

	_, err = relations.FindByProduct(ctx, 1)
	require.NoError(t, err)
}
