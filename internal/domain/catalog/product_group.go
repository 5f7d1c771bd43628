package catalog

import (
	"strings"

	"github.com/kasapos/backend/internal/domain/shared"
)

// DefaultGroupName is the name given to the seeded "all products" group
const DefaultGroupName = "Tüm Ürünler"

// ProductGroup is a named, ordered shelf of products shown on the sale screen.
// Exactly one group is the default; it represents the whole catalog and owns no relations.
type ProductGroup struct {
	shared.BaseEntity
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Order     int    `gorm:"column:sort_order;not null;default:0;index:idx_product_groups_order" json:"order"`
	IsDefault bool   `gorm:"not null;default:false" json:"is_default"`
}

// TableName returns the table name for GORM
func (ProductGroup) TableName() string {
	return "product_groups"
}

// NewProductGroup builds a non-default group at the given order
func NewProductGroup(name string, order int) (*ProductGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "name: required")
	}
	return &ProductGroup{Name: name, Order: order}, nil
}

// ApplyUpdate merges a caller-supplied group into g.
// The default group only accepts a new name; other groups take every field except IsDefault.
func (g *ProductGroup) ApplyUpdate(in *ProductGroup) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "name: required")
	}
	g.Name = name
	if g.IsDefault {
		return nil
	}
	g.Order = in.Order
	return nil
}

// ProductGroupRelation records explicit membership of a product in a non-default group
type ProductGroupRelation struct {
	GroupID   int64 `gorm:"primaryKey;autoIncrement:false;index:idx_relations_group_id" json:"group_id"`
	ProductID int64 `gorm:"primaryKey;autoIncrement:false;index:idx_relations_product_id" json:"product_id"`
}

// TableName returns the table name for GORM
func (ProductGroupRelation) TableName() string {
	return "product_group_relations"
}
