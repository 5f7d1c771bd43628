package catalog

import (
	"testing"

	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, CategoryKey("İÇECEK"), CategoryKey("içecek"))
	assert.Equal(t, CategoryKey(" Genel "), CategoryKey("GENEL"))
	assert.NotEqual(t, CategoryKey("Süt"), CategoryKey("Sut"))
}

func TestNewCategory(t *testing.T) {
	t.Run("assigns default icon and key", func(t *testing.T) {
		c, err := NewCategory(CategoryInput{Name: " Şarküteri "})
		require.NoError(t, err)
		assert.Equal(t, "Şarküteri", c.Name)
		assert.Equal(t, CategoryKey("ŞARKÜTERİ"), c.NameKey)
		assert.Equal(t, DefaultCategoryIcon, c.Icon)
		assert.Nil(t, c.ParentID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCategory(CategoryInput{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = NewCategory(CategoryInput{Name: "   "})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("sentinel detection ignores case", func(t *testing.T) {
		c, err := NewCategory(CategoryInput{Name: "GENEL"})
		require.NoError(t, err)
		assert.True(t, c.IsSentinel())
	})
}

func TestProductGroup_ApplyUpdate(t *testing.T) {
	t.Run("default group keeps everything but name", func(t *testing.T) {
		g := &ProductGroup{Name: DefaultGroupName, Order: 0, IsDefault: true}
		require.NoError(t, g.ApplyUpdate(&ProductGroup{Name: "Hepsi", Order: 9}))
		assert.Equal(t, "Hepsi", g.Name)
		assert.Equal(t, 0, g.Order)
		assert.True(t, g.IsDefault)
	})

	t.Run("regular group cannot become default", func(t *testing.T) {
		g, err := NewProductGroup("Sigara", 3)
		require.NoError(t, err)
		require.NoError(t, g.ApplyUpdate(&ProductGroup{Name: "Tütün", Order: 5, IsDefault: true}))
		assert.Equal(t, "Tütün", g.Name)
		assert.Equal(t, 5, g.Order)
		assert.False(t, g.IsDefault)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := NewProductGroup(" ", 1)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
