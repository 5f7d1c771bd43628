package persistence

import (
	"github.com/kasapos/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Secondary index names of the catalog schema
const (
	IndexProductsBarcode    = "idx_products_barcode"
	IndexGroupsOrder        = "idx_product_groups_order"
	IndexRelationsGroupID   = "idx_relations_group_id"
	IndexRelationsProductID = "idx_relations_product_id"
)

var indexModels = map[string]any{
	IndexProductsBarcode:    &catalog.Product{},
	IndexGroupsOrder:        &catalog.ProductGroup{},
	IndexRelationsGroupID:   &catalog.ProductGroupRelation{},
	IndexRelationsProductID: &catalog.ProductGroupRelation{},
}

// IndexCapabilities records which secondary indexes exist in the opened database.
// Repository selection is a pure function of this value.
type IndexCapabilities struct {
	ProductsBarcode    bool `json:"products_barcode"`
	GroupsOrder        bool `json:"groups_order"`
	RelationsGroupID   bool `json:"relations_group_id"`
	RelationsProductID bool `json:"relations_product_id"`
}

// FullCapabilities returns a descriptor with every index present
func FullCapabilities() IndexCapabilities {
	return IndexCapabilities{
		ProductsBarcode:    true,
		GroupsOrder:        true,
		RelationsGroupID:   true,
		RelationsProductID: true,
	}
}

// DetectCapabilities inspects the schema through the GORM migrator
func DetectCapabilities(db *gorm.DB) IndexCapabilities {
	m := db.Migrator()
	return IndexCapabilities{
		ProductsBarcode:    m.HasIndex(&catalog.Product{}, IndexProductsBarcode),
		GroupsOrder:        m.HasIndex(&catalog.ProductGroup{}, IndexGroupsOrder),
		RelationsGroupID:   m.HasIndex(&catalog.ProductGroupRelation{}, IndexRelationsGroupID),
		RelationsProductID: m.HasIndex(&catalog.ProductGroupRelation{}, IndexRelationsProductID),
	}
}

// Has reports whether the named index is available
func (c IndexCapabilities) Has(index string) bool {
	switch index {
	case IndexProductsBarcode:
		return c.ProductsBarcode
	case IndexGroupsOrder:
		return c.GroupsOrder
	case IndexRelationsGroupID:
		return c.RelationsGroupID
	case IndexRelationsProductID:
		return c.RelationsProductID
	}
	return false
}

// Missing lists the absent indexes in a stable order
func (c IndexCapabilities) Missing() []string {
	var missing []string
	for _, name := range []string{IndexProductsBarcode, IndexGroupsOrder, IndexRelationsGroupID, IndexRelationsProductID} {
		if !c.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Degraded reports whether any lookup will fall back to a table scan
func (c IndexCapabilities) Degraded() bool {
	return len(c.Missing()) > 0
}
