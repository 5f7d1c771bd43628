package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listGroups(t *testing.T, router http.Handler) []catalog.ProductGroup {
	t.Helper()
	w := doJSON(router, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var groups []catalog.ProductGroup
	decodeData(t, w, &groups)
	return groups
}

func createGroup(t *testing.T, router http.Handler, name string) catalog.ProductGroup {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/v1/groups", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g catalog.ProductGroup
	decodeData(t, w, &g)
	return g
}

func groupProducts(t *testing.T, router http.Handler, groupID int64) []int64 {
	t.Helper()
	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/v1/groups/%d/products", groupID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.GroupProductsResponse
	decodeData(t, w, &resp)
	assert.Equal(t, groupID, resp.GroupID)
	return resp.ProductIDs
}

func TestGroupHandler_CreateAppends(t *testing.T) {
	router := newTestRouter(NewGroupHandler(newTestStore(t)))

	favorites := createGroup(t, router, "Favoriler")
	snacks := createGroup(t, router, "Atıştırmalık")

	assert.False(t, favorites.IsDefault)
	assert.Equal(t, favorites.Order+1, snacks.Order)

	groups := listGroups(t, router)
	require.Len(t, groups, 3)
	assert.True(t, groups[0].IsDefault)
	assert.Equal(t, []string{catalog.DefaultGroupName, "Favoriler", "Atıştırmalık"},
		[]string{groups[0].Name, groups[1].Name, groups[2].Name})
}

func TestGroupHandler_Membership(t *testing.T) {
	store := newTestStore(t)
	router := newTestRouter(NewGroupHandler(store), NewProductHandler(store))
	tea := createProduct(t, router, "Çay", "8690001", 1)
	coffee := createProduct(t, router, "Kahve", "8690002", 1)
	favorites := createGroup(t, router, "Favoriler")
	membersPath := fmt.Sprintf("/api/v1/groups/%d/products", favorites.ID)

	for i := 0; i < 2; i++ {
		w := doJSON(router, http.MethodPost, membersPath, map[string]any{"product_id": tea.ID})
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	}
	assert.Equal(t, []int64{tea.ID}, groupProducts(t, router, favorites.ID))

	t.Run("default group lists the whole catalog", func(t *testing.T) {
		def := listGroups(t, router)[0]
		require.True(t, def.IsDefault)

		w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/v1/groups/%d/products", def.ID),
			map[string]any{"product_id": tea.ID})
		assert.Equal(t, http.StatusNoContent, w.Code)

		assert.ElementsMatch(t, []int64{tea.ID, coffee.ID}, groupProducts(t, router, def.ID))
	})

	t.Run("unknown product", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, membersPath, map[string]any{"product_id": 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("remove", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, fmt.Sprintf("%s/%d", membersPath, tea.ID), nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, groupProducts(t, router, favorites.ID))
	})

	t.Run("deleting a product drops its memberships", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, membersPath, map[string]any{"product_id": coffee.ID})
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(router, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", coffee.ID), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		assert.Empty(t, groupProducts(t, router, favorites.ID))
	})
}

func TestGroupHandler_DefaultGroupIsProtected(t *testing.T) {
	router := newTestRouter(NewGroupHandler(newTestStore(t)))
	def := listGroups(t, router)[0]
	path := fmt.Sprintf("/api/v1/groups/%d", def.ID)

	w := doJSON(router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeDefaultGroupProtected, decodeError(t, w).Code)

	w = doJSON(router, http.MethodPut, path, map[string]any{"name": "Hepsi", "order": 9})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var renamed catalog.ProductGroup
	decodeData(t, w, &renamed)
	assert.Equal(t, "Hepsi", renamed.Name)
	assert.Equal(t, def.Order, renamed.Order)
	assert.True(t, renamed.IsDefault)
}

func TestGroupHandler_UpdateAndDelete(t *testing.T) {
	router := newTestRouter(NewGroupHandler(newTestStore(t)))
	g := createGroup(t, router, "Favoriler")
	path := fmt.Sprintf("/api/v1/groups/%d", g.ID)

	w := doJSON(router, http.MethodPut, path, map[string]any{"name": "Sık Kullanılan", "order": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated catalog.ProductGroup
	decodeData(t, w, &updated)
	assert.Equal(t, "Sık Kullanılan", updated.Name)
	assert.Equal(t, 7, updated.Order)

	w = doJSON(router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, path+"/products", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
