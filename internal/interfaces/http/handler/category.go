package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
)

// CategoryStore is the part of the catalog store the category endpoints use
type CategoryStore interface {
	AddCategory(ctx context.Context, in catalog.CategoryInput) (int64, error)
	UpdateCategory(ctx context.Context, c *catalog.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*catalog.Category, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// CategoryHandler handles category-related API endpoints
type CategoryHandler struct {
	BaseHandler
	store CategoryStore
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// List godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalog.Category}
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, categories, len(categories))
}

// Get godoc
// @Summary      Get category by ID
// @Tags         categories
// @Produce      json
// @Param        id path int true "Category ID"
// @Success      200 {object} dto.Response{data=catalog.Category}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}
	category, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Create godoc
// @Summary      Create a category
// @Description  Names are unique ignoring case
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request body dto.CategoryRequest true "Category"
// @Success      201 {object} dto.Response{data=catalog.Category}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.AddCategory(ctx, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	category, err := h.store.GetCategory(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// Update godoc
// @Summary      Update a category
// @Description  A rename is applied to every product in the category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        id path int true "Category ID"
// @Param        request body dto.CategoryRequest true "Category"
// @Success      200 {object} dto.Response{data=catalog.Category}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}
	var req dto.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	category, err := h.store.GetCategory(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	category.Name = req.Name
	category.Icon = req.Icon
	category.ParentID = req.ParentID
	if err := h.store.UpdateCategory(ctx, category); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Delete godoc
// @Summary      Delete a category
// @Description  Products of the category move to the fallback category
// @Tags         categories
// @Param        id path int true "Category ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid category ID")
		return
	}
	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers the category routes
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	categories.GET("", h.List)
	categories.POST("", h.Create)
	categories.GET("/:id", h.Get)
	categories.PUT("/:id", h.Update)
	categories.DELETE("/:id", h.Delete)
}
