package catalog

import (
	"strings"

	"github.com/kasapos/backend/internal/domain/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SentinelCategoryName is the category products fall back to when theirs is deleted
const SentinelCategoryName = "Genel"

// DefaultCategoryIcon is assigned to categories created without an icon
const DefaultCategoryIcon = "package"

// Category is a named product category.
// Products reference categories by name, not by id.
type Category struct {
	shared.BaseEntity
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	NameKey  string `gorm:"type:varchar(100);not null;index:idx_categories_name_key" json:"-"`
	Icon     string `gorm:"type:varchar(50)" json:"icon"`
	ParentID *int64 `gorm:"index" json:"parent_id,omitempty"`
	Level    int    `gorm:"not null;default:0" json:"level"`
	Path     string `gorm:"type:varchar(500)" json:"path,omitempty"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// CategoryInput carries the caller-supplied fields of a category
type CategoryInput struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Icon     string `json:"icon" validate:"max=50"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Level    int    `json:"level" validate:"gte=0"`
	Path     string `json:"path,omitempty" validate:"max=500"`
}

// NewCategory validates the input and builds an unsaved category
func NewCategory(in CategoryInput) (*Category, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	c := &Category{
		Icon:     in.Icon,
		ParentID: in.ParentID,
		Level:    in.Level,
		Path:     in.Path,
	}
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	c.Rename(in.Name)
	return c, nil
}

// Rename sets the display name and its comparison key
func (c *Category) Rename(name string) {
	c.Name = strings.TrimSpace(name)
	c.NameKey = CategoryKey(c.Name)
}

// IsSentinel reports whether this is the fallback category
func (c *Category) IsSentinel() bool {
	return c.NameKey == CategoryKey(SentinelCategoryName)
}

// CategoryKey folds a category name for case-insensitive comparison.
// Turkish rules apply, so "İÇECEK" and "içecek" share a key.
func CategoryKey(name string) string {
	return cases.Lower(language.Turkish).String(strings.TrimSpace(name))
}
