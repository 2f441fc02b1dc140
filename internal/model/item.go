package model

import "github.com/google/uuid"

type ItemStatus string

const (
	StatusInWarehouse    ItemStatus = "IN_WAREHOUSE"
	StatusOutOfWarehouse ItemStatus = "OUT_OF_WAREHOUSE"
	StatusUnknown        ItemStatus = "UNKNOWN"
)

// ItemStatuses lists every valid status in display order.
var ItemStatuses = []ItemStatus{StatusInWarehouse, StatusOutOfWarehouse, StatusUnknown}

// Item is a catalog entry. CategoryID is nil only after its category was
// deleted under the "null" orphan policy.
type Item struct {
	BaseModel
	Name       string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"categoryId"`
	Category   *Category       `gorm:"foreignKey:CategoryID" json:"category"`
	Attributes []ItemAttribute `gorm:"foreignKey:ItemID" json:"attributes"`
	Status     ItemStatus      `gorm:"type:varchar(32);not null;default:IN_WAREHOUSE;index" json:"status"`
}

func (Item) TableName() string {
	return "items"
}

// ItemAttribute assigns a value for one attribute to one item. Position keeps
// the client-supplied order of the item's attribute list.
type ItemAttribute struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	ItemID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	AttributeID uuid.UUID  `gorm:"type:uuid;not null;index" json:"attributeId"`
	Attribute   *Attribute `gorm:"foreignKey:AttributeID" json:"attribute,omitempty"`
	Value       *string    `gorm:"type:text" json:"value"`
	Position    int        `gorm:"not null;default:0" json:"-"`
}

func (ItemAttribute) TableName() string {
	return "item_attributes"
}
