package database

import (
	"fmt"

	"gorm.io/gorm"

	"go-catalog-api/internal/model"
)

// Migrate registers the custom join table and brings the schema up to date.
// It must run on every *gorm.DB before the repositories use it.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Category{}, "Attributes", &model.CategoryAttribute{}); err != nil {
		return fmt.Errorf("setting up category_attributes: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Attribute{},
		&model.Category{},
		&model.CategoryAttribute{},
		&model.Item{},
		&model.ItemAttribute{},
		&model.User{},
	); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
