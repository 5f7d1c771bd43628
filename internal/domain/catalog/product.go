package catalog

import (
	"strings"

	"github.com/kasapos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the catalog.
// SalePrice is VAT-exclusive; PriceWithVat is derived from it and VatRate.
type Product struct {
	shared.BaseEntity
	Name          string          `gorm:"type:varchar(200);not null" json:"name"`
	Barcode       string          `gorm:"type:varchar(50);index:idx_products_barcode" json:"barcode"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"purchase_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"sale_price"`
	VatRate       VatRate         `gorm:"not null;default:18" json:"vat_rate"`
	PriceWithVat  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price_with_vat"`
	Category      string          `gorm:"type:varchar(100);not null;default:'Genel'" json:"category"`
	Stock         int             `gorm:"not null;default:0" json:"stock"`
	ImageURL      string          `gorm:"type:varchar(500)" json:"image_url,omitempty"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// ProductInput carries the caller-supplied fields of a new or replaced product
type ProductInput struct {
	Name          string           `json:"name" validate:"notblank,max=200"`
	Barcode       string           `json:"barcode" validate:"max=50"`
	PurchasePrice decimal.Decimal  `json:"purchase_price" validate:"gte=0"`
	SalePrice     decimal.Decimal  `json:"sale_price" validate:"gte=0"`
	VatRate       VatRate          `json:"vat_rate" validate:"oneof=0 1 8 18 20"`
	PriceWithVat  *decimal.Decimal `json:"price_with_vat,omitempty"`
	Category      string           `json:"category" validate:"max=100"`
	Stock         int              `json:"stock" validate:"gte=0"`
	ImageURL      string           `json:"image_url,omitempty" validate:"max=500"`
}

// NewProduct validates the input and builds an unsaved product.
// PriceWithVat is derived unless the input supplies it; an empty category becomes the sentinel.
func NewProduct(in ProductInput) (*Product, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	p := &Product{}
	p.apply(in)
	return p, nil
}

// Replace overwrites every mutable field from the input, keeping identity and timestamps
func (p *Product) Replace(in ProductInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	p.apply(in)
	return nil
}

func (p *Product) apply(in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Barcode = strings.TrimSpace(in.Barcode)
	p.PurchasePrice = in.PurchasePrice
	p.SalePrice = in.SalePrice
	p.VatRate = in.VatRate
	if in.PriceWithVat != nil {
		p.PriceWithVat = *in.PriceWithVat
	} else {
		p.PriceWithVat = PriceWithVat(in.SalePrice, in.VatRate)
	}
	p.Category = strings.TrimSpace(in.Category)
	if p.Category == "" {
		p.Category = SentinelCategoryName
	}
	p.Stock = in.Stock
	p.ImageURL = strings.TrimSpace(in.ImageURL)
}

// Input returns the mutable fields of the product as an input value
func (p *Product) Input() ProductInput {
	pwv := p.PriceWithVat
	return ProductInput{
		Name:          p.Name,
		Barcode:       p.Barcode,
		PurchasePrice: p.PurchasePrice,
		SalePrice:     p.SalePrice,
		VatRate:       p.VatRate,
		PriceWithVat:  &pwv,
		Category:      p.Category,
		Stock:         p.Stock,
		ImageURL:      p.ImageURL,
	}
}

// HasBarcode reports whether the product carries a non-empty barcode
func (p *Product) HasBarcode() bool {
	return p.Barcode != ""
}

// AdjustStock applies delta to the stock level.
// A result below zero is rejected and leaves the product unchanged.
func (p *Product) AdjustStock(delta int) error {
	next := p.Stock + delta
	if next < 0 {
		return shared.ErrInsufficientStock
	}
	p.Stock = next
	return nil
}
