package repository

import (
	"context"

	"go-catalog-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributeMatch requires an item to carry attribute AttributeID with exactly Value.
type AttributeMatch struct {
	AttributeID uuid.UUID
	Value       string
}

// ItemFilter is a fully resolved item query. A nil CategoryIDs means any
// category; a non-nil empty slice matches nothing.
type ItemFilter struct {
	CategoryIDs []uuid.UUID
	Status      model.ItemStatus
	Name        string
	Attributes  []AttributeMatch
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	Find(ctx context.Context, filter ItemFilter, offset, limit int) ([]model.Item, int64, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (map[model.ItemStatus]int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	ReplaceAttributes(ctx context.Context, itemID uuid.UUID, entries []model.ItemAttribute) error
	UpdateAttributeValue(ctx context.Context, itemID, attributeID uuid.UUID, value *string) (int64, error)
	RemoveAttributeEverywhere(ctx context.Context, attributeID uuid.UUID) (int64, error)
	ReassignCategory(ctx context.Context, from uuid.UUID, to *uuid.UUID) (int64, error)

	WithTx(tx *gorm.DB) ItemRepository
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) WithTx(tx *gorm.DB) ItemRepository {
	return &itemRepo{tx}
}

// preloadItem loads the category and the ordered attribute entries with their definitions.
func preloadItem(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Attributes.Attribute")
}

// Create stores the item row only; attribute entries go through ReplaceAttributes.
func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).Scopes(preloadItem).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) Find(ctx context.Context, f ItemFilter, offset, limit int) ([]model.Item, int64, error) {
	var (
		items []model.Item
		total int64
	)

	query := r.db.WithContext(ctx).Model(&model.Item{})
	if f.CategoryIDs != nil {
		query = query.Where("category_id IN ?", f.CategoryIDs)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Name != "" {
		query = query.Where(likeCondition("name"), likePattern(f.Name))
	}
	// One EXISTS per requested attribute: an item must satisfy all of them.
	for _, m := range f.Attributes {
		query = query.Where(
			"EXISTS (SELECT 1 FROM item_attributes ia WHERE ia.item_id = items.id AND ia.attribute_id = ? AND ia.value = ?)",
			m.AttributeID, m.Value,
		)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Scopes(preloadItem).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update saves scalar columns only; attribute entries go through ReplaceAttributes.
func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

// Delete removes the item and its attribute entries. Callers run it in a transaction.
func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx)
	result := db.Delete(&model.Item{}, "id = ?", id)
	if result.Error != nil || result.RowsAffected == 0 {
		return result.RowsAffected, result.Error
	}
	if err := db.Where("item_id = ?", id).Delete(&model.ItemAttribute{}).Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

func (r *itemRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Count(&total).Error
	return total, err
}

func (r *itemRepo) CountByStatus(ctx context.Context) (map[model.ItemStatus]int64, error) {
	var rows []struct {
		Status model.ItemStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ItemStatus]int64, len(model.ItemStatuses))
	for _, s := range model.ItemStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *itemRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Where("category_id = ?", categoryID).Count(&total).Error
	return total, err
}

// ReplaceAttributes drops the item's entries and writes entries in order.
func (r *itemRepo) ReplaceAttributes(ctx context.Context, itemID uuid.UUID, entries []model.ItemAttribute) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("item_id = ?", itemID).Delete(&model.ItemAttribute{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([]model.ItemAttribute, len(entries))
	for i, e := range entries {
		rows[i] = model.ItemAttribute{
			ItemID:      itemID,
			AttributeID: e.AttributeID,
			Value:       e.Value,
			Position:    i,
		}
	}
	return db.Omit(clause.Associations).Create(&rows).Error
}

func (r *itemRepo) UpdateAttributeValue(ctx context.Context, itemID, attributeID uuid.UUID, value *string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ItemAttribute{}).
		Where("item_id = ? AND attribute_id = ?", itemID, attributeID).
		Update("value", value)
	return result.RowsAffected, result.Error
}

func (r *itemRepo) RemoveAttributeEverywhere(ctx context.Context, attributeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("attribute_id = ?", attributeID).
		Delete(&model.ItemAttribute{})
	return result.RowsAffected, result.Error
}

// ReassignCategory points every item of category from at to (nil clears it).
func (r *itemRepo) ReassignCategory(ctx context.Context, from uuid.UUID, to *uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("category_id = ?", from).
		Update("category_id", to)
	return result.RowsAffected, result.Error
}
