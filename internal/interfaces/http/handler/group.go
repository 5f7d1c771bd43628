package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
)

// GroupStore is the part of the catalog store the product group endpoints use
type GroupStore interface {
	GetProductGroups(ctx context.Context) ([]catalog.ProductGroup, error)
	AddProductGroup(ctx context.Context, name string) (int64, error)
	UpdateProductGroup(ctx context.Context, g *catalog.ProductGroup) error
	DeleteProductGroup(ctx context.Context, id int64) error
	AddProductToGroup(ctx context.Context, groupID, productID int64) error
	RemoveProductFromGroup(ctx context.Context, groupID, productID int64) error
	GetGroupProducts(ctx context.Context, groupID int64) ([]int64, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// GroupHandler handles product group API endpoints
type GroupHandler struct {
	BaseHandler
	store GroupStore
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(store GroupStore) *GroupHandler {
	return &GroupHandler{store: store}
}

// List godoc
// @Summary      List product groups
// @Description  Groups in display order; the default group comes first
// @Tags         groups
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalog.ProductGroup}
// @Router       /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.store.GetProductGroups(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, groups, len(groups))
}

// Create godoc
// @Summary      Create a product group
// @Description  The group is placed after every existing group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body dto.GroupRequest true "Group"
// @Success      201 {object} dto.Response{data=catalog.ProductGroup}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.AddProductGroup(ctx, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	group, err := h.find(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, group)
}

// Update godoc
// @Summary      Update a product group
// @Description  The default group only accepts a new name
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body dto.GroupRequest true "Group"
// @Success      200 {object} dto.Response{data=catalog.ProductGroup}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}
	var req dto.GroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	group := &catalog.ProductGroup{Name: req.Name, Order: req.Order}
	group.ID = id
	if err := h.store.UpdateProductGroup(ctx, group); err != nil {
		h.HandleError(c, err)
		return
	}
	updated, err := h.find(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, updated)
}

// Delete godoc
// @Summary      Delete a product group
// @Tags         groups
// @Param        id path int true "Group ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}
	if err := h.store.DeleteProductGroup(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Products godoc
// @Summary      List the products of a group
// @Description  The default group lists every product in the catalog
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} dto.Response{data=dto.GroupProductsResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /groups/{id}/products [get]
func (h *GroupHandler) Products(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}

	ctx := c.Request.Context()
	group, err := h.find(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var ids []int64
	if group.IsDefault {
		products, err := h.store.ListProducts(ctx)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		ids = make([]int64, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
	} else {
		ids, err = h.store.GetGroupProducts(ctx, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if ids == nil {
		ids = []int64{}
	}
	h.Success(c, dto.GroupProductsResponse{GroupID: id, ProductIDs: ids})
}

// AddProduct godoc
// @Summary      Add a product to a group
// @Description  Adding twice is harmless; the default group ignores the call
// @Tags         groups
// @Accept       json
// @Param        id path int true "Group ID"
// @Param        request body dto.GroupMemberRequest true "Product"
// @Success      204
// @Router       /groups/{id}/products [post]
func (h *GroupHandler) AddProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}
	var req dto.GroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if err := h.store.AddProductToGroup(c.Request.Context(), id, req.ProductID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RemoveProduct godoc
// @Summary      Remove a product from a group
// @Tags         groups
// @Param        id path int true "Group ID"
// @Param        productId path int true "Product ID"
// @Success      204
// @Router       /groups/{id}/products/{productId} [delete]
func (h *GroupHandler) RemoveProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid group ID")
		return
	}
	productID, ok := parseID(c, "productId")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	if err := h.store.RemoveProductFromGroup(c.Request.Context(), id, productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *GroupHandler) find(ctx context.Context, id int64) (*catalog.ProductGroup, error) {
	groups, err := h.store.GetProductGroups(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// RegisterRoutes registers the product group routes
func (h *GroupHandler) RegisterRoutes(rg *gin.RouterGroup) {
	groups := rg.Group("/groups")
	groups.GET("", h.List)
	groups.POST("", h.Create)
	groups.PUT("/:id", h.Update)
	groups.DELETE("/:id", h.Delete)
	groups.GET("/:id/products", h.Products)
	groups.POST("/:id/products", h.AddProduct)
	groups.DELETE("/:id/products/:productId", h.RemoveProduct)
}
