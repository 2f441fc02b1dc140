package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SentinelCategoryName is the name given to the lazily created fallback
// category that receives items orphaned by a category delete.
const SentinelCategoryName = "Other"

// Category is a taxonomy node. ParentID nil means the category is a root.
type Category struct {
	BaseModel
	Name       string      `gorm:"type:varchar(255);not null;index" json:"name"`
	ParentID   *uuid.UUID  `gorm:"type:uuid;index" json:"parentId"`
	Parent     *Category   `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Attributes []Attribute `gorm:"many2many:category_attributes" json:"attributes"`
	// At most one row may carry the flag; the partial unique index enforces it.
	IsOther bool `gorm:"not null;default:false;uniqueIndex:idx_categories_sentinel,where:is_other = true" json:"isOther"`

	// Derived on read, never persisted.
	IsSubCategory    bool   `gorm:"-" json:"isSubCategory"`
	SubCategoryCount *int64 `gorm:"-" json:"subCategoryCount,omitempty"`
	ItemCount        *int64 `gorm:"-" json:"itemCount,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) AfterFind(tx *gorm.DB) error {
	c.IsSubCategory = c.ParentID != nil
	return nil
}

// CategoryAttribute is the join row attaching an attribute to a category.
type CategoryAttribute struct {
	CategoryID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	AttributeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (CategoryAttribute) TableName() string {
	return "category_attributes"
}
