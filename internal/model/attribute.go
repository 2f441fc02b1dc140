package model

import "gorm.io/datatypes"

// Attribute is a named, ordered option set such as Color: {Red, Blue}.
type Attribute struct {
	BaseModel
	Name    string                      `gorm:"type:varchar(255);not null;index" json:"name"`
	Options datatypes.JSONSlice[string] `json:"options"`
}

func (Attribute) TableName() string {
	return "attributes"
}
