package dto

import (
	"github.com/kasapos/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductRequest is the body of product create and update.
// Prices accept JSON numbers or strings.
type ProductRequest struct {
	Name          string           `json:"name" binding:"required,max=200"`
	Barcode       string           `json:"barcode" binding:"max=50"`
	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	VatRate       *int             `json:"vat_rate" binding:"omitempty,oneof=0 1 8 18 20"`
	PriceWithVat  *decimal.Decimal `json:"price_with_vat"`
	Category      string           `json:"category" binding:"max=100"`
	Stock         int              `json:"stock" binding:"gte=0"`
	ImageURL      string           `json:"image_url" binding:"max=500"`
}

// ToInput converts the request to a catalog input; an omitted VAT rate is 18
func (r ProductRequest) ToInput() catalog.ProductInput {
	rate := catalog.DefaultVatRate
	if r.VatRate != nil {
		rate = catalog.VatRate(*r.VatRate)
	}
	return catalog.ProductInput{
		Name:          r.Name,
		Barcode:       r.Barcode,
		PurchasePrice: r.PurchasePrice,
		SalePrice:     r.SalePrice,
		VatRate:       rate,
		PriceWithVat:  r.PriceWithVat,
		Category:      r.Category,
		Stock:         r.Stock,
		ImageURL:      r.ImageURL,
	}
}

// StockRequest adjusts stock by a signed delta
type StockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Icon     string `json:"icon" binding:"max=50"`
	ParentID *int64 `json:"parent_id"`
}

// ToInput converts the request to a catalog input
func (r CategoryRequest) ToInput() catalog.CategoryInput {
	return catalog.CategoryInput{Name: r.Name, Icon: r.Icon, ParentID: r.ParentID}
}

// GroupRequest is the body of product group create and update
type GroupRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Order int    `json:"order"`
}

// GroupMemberRequest adds a product to a group
type GroupMemberRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

// GroupProductsResponse lists the product ids of a group.
// For the default group the list holds every product.
type GroupProductsResponse struct {
	GroupID    int64   `json:"group_id"`
	ProductIDs []int64 `json:"product_ids"`
}

// StockAdjustedResponse is returned after a stock change
type StockAdjustedResponse struct {
	Product *catalog.Product `json:"product"`
	Delta   int              `json:"delta"`
}

// ListProductsQuery orders the product list; unknown columns fall back to id
type ListProductsQuery struct {
	SortBy    string `form:"sort_by" binding:"omitempty,max=32"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
}
