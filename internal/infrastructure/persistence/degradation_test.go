package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDegradationRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("warns once per index", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		r := NewDegradationRecorder(zap.New(core), nil, 10)

		r.Record(ctx, "products", IndexProductsBarcode, "barcode lookup")
		r.Record(ctx, "products", IndexProductsBarcode, "barcode lookup")
		r.Record(ctx, "product_groups", IndexGroupsOrder, "ordered listing")

		assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
		assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())
		assert.Equal(t, int64(2), r.Count(IndexProductsBarcode))
		assert.Equal(t, int64(1), r.Count(IndexGroupsOrder))
		assert.Zero(t, r.Count(IndexRelationsGroupID))
	})

	t.Run("keeps the newest entries", func(t *testing.T) {
		r := NewDegradationRecorder(nil, nil, 3)
		for _, reason := range []string{"a", "b", "c", "d", "e"} {
			r.Record(ctx, "products", IndexProductsBarcode, reason)
		}

		entries := r.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, []string{"c", "d", "e"}, []string{entries[0].Reason, entries[1].Reason, entries[2].Reason})
		assert.Equal(t, int64(5), r.Count(IndexProductsBarcode))
	})

	t.Run("nil recorder is a no-op", func(t *testing.T) {
		var r *DegradationRecorder
		assert.NotPanics(t, func() { r.Record(ctx, "products", IndexProductsBarcode, "x") })
	})
}

func TestIndexCapabilities(t *testing.T) {
	full := FullCapabilities()
	assert.False(t, full.Degraded())
	assert.Empty(t, full.Missing())

	caps := IndexCapabilities{ProductsBarcode: true, RelationsProductID: true}
	assert.True(t, caps.Degraded())
	assert.Equal(t, []string{IndexGroupsOrder, IndexRelationsGroupID}, caps.Missing())
	assert.True(t, caps.Has(IndexProductsBarcode))
	assert.False(t, caps.Has("idx_unknown"))
}

func TestDetectCapabilities(t *testing.T) {
	store := newTestStore(t, WithSkippedIndexes(IndexGroupsOrder, IndexRelationsProductID))

	caps := DetectCapabilities(store.db.DB)
	assert.Equal(t, IndexCapabilities{ProductsBarcode: true, RelationsGroupID: true}, caps)
	assert.Equal(t, caps, store.Capabilities())
}

func TestCatalogStore_DegradationLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithSkippedIndexes(IndexProductsBarcode), WithDegradationLimit(1))

	_, err := store.AddProduct(ctx, productInput("A", "X"))
	require.NoError(t, err)
	_, err = store.AddProduct(ctx, productInput("B", "Y"))
	require.NoError(t, err)

	assert.Len(t, store.Degradations(), 1)
}
