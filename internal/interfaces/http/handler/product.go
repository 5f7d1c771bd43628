package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/kasapos/backend/internal/interfaces/http/dto"
)

// ProductStore is the part of the catalog store the product endpoints use
type ProductStore interface {
	AddProduct(ctx context.Context, in catalog.ProductInput) (int64, error)
	UpdateProduct(ctx context.Context, p *catalog.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ListProductsSorted(ctx context.Context, sortBy, sortOrder string) ([]catalog.Product, error)
	FindProductByBarcode(ctx context.Context, code string) (*catalog.Product, error)
	UpdateStock(ctx context.Context, id int64, delta int) error
}

// ProductHandler handles product-related API endpoints
type ProductHandler struct {
	BaseHandler
	store ProductStore
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// List godoc
// @Summary      List products
// @Description  Return every product, ordered by ID unless sort_by names another column
// @Tags         products
// @Produce      json
// @Param        sort_by    query string false "Column to order by" Enums(id, name, barcode, category, purchase_price, sale_price, price_with_vat, vat_rate, stock, created_at, updated_at)
// @Param        sort_order query string false "asc or desc" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]catalog.Product}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var query dto.ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	products, err := h.store.ListProductsSorted(c.Request.Context(), query.SortBy, query.SortOrder)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, products, len(products))
}

// Get godoc
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} dto.Response{data=catalog.Product}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	p, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// GetByBarcode godoc
// @Summary      Find product by barcode
// @Description  Used by the scanner on the sale screen
// @Tags         products
// @Produce      json
// @Param        code path string true "Barcode"
// @Success      200 {object} dto.Response{data=catalog.Product}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/barcode/{code} [get]
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	p, err := h.store.FindProductByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Create godoc
// @Summary      Create a product
// @Description  PriceWithVat is derived from sale_price and vat_rate when omitted
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body dto.ProductRequest true "Product"
// @Success      201 {object} dto.Response{data=catalog.Product}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	id, err := h.store.AddProduct(ctx, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	p, err := h.store.GetProduct(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Update godoc
// @Summary      Replace a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path int true "Product ID"
// @Param        request body dto.ProductRequest true "Product"
// @Success      200 {object} dto.Response{data=catalog.Product}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	p := &catalog.Product{}
	if err := p.Replace(req.ToInput()); err != nil {
		h.HandleError(c, err)
		return
	}
	p.ID = id
	if err := h.store.UpdateProduct(c.Request.Context(), p); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
// @Summary      Delete a product
// @Description  Group memberships of the product are removed with it
// @Tags         products
// @Param        id path int true "Product ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AdjustStock godoc
// @Summary      Adjust product stock
// @Description  Adds a signed delta to the stock and notifies stock stream subscribers
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path int true "Product ID"
// @Param        request body dto.StockRequest true "Delta"
// @Success      200 {object} dto.Response{data=dto.StockAdjustedResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.store.UpdateStock(ctx, id, req.Delta); err != nil {
		h.HandleError(c, err)
		return
	}
	// UpdateStock ignores unknown products; the read reports them
	p, err := h.store.GetProduct(ctx, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.StockAdjustedResponse{Product: p, Delta: req.Delta})
}

// RegisterRoutes registers the product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.List)
	products.POST("", h.Create)
	products.GET("/barcode/:code", h.GetByBarcode)
	products.GET("/:id", h.Get)
	products.PUT("/:id", h.Update)
	products.DELETE("/:id", h.Delete)
	products.POST("/:id/stock", h.AdjustStock)
}
