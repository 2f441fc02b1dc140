package repository

import (
	"context"
	"errors"

	"go-catalog-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryFilter holds the list dimensions; nil fields are ignored.
type CategoryFilter struct {
	IsSubCategory *bool
	ParentID      *uuid.UUID
	Name          string
}

// rootCondition matches categories without a parent, including those whose
// parent row no longer exists.
const rootCondition = "(categories.parent_id IS NULL OR NOT EXISTS (SELECT 1 FROM categories p WHERE p.id = categories.parent_id))"

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// LockReference reports whether the category exists and, on postgres,
	// holds a share lock on its row until the surrounding transaction ends.
	LockReference(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter CategoryFilter, offset, limit int) ([]model.Category, int64, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)

	ParentOf(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
	ChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error)
	DetachChildren(ctx context.Context, parentID uuid.UUID) (int64, error)

	AttributeIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
	SetAttributes(ctx context.Context, categoryID uuid.UUID, attributeIDs []uuid.UUID) error
	ClearAttributes(ctx context.Context, categoryID uuid.UUID) error
	RemoveAttributeEverywhere(ctx context.Context, attributeID uuid.UUID) (int64, error)

	EnsureSentinel(ctx context.Context) (*model.Category, error)

	WithTx(tx *gorm.DB) CategoryRepository
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepo{tx}
}

// Create stores the category row only; attach attributes with SetAttributes.
func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(category).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Preload("Parent").
		Preload("Attributes").
		First(&category, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName matches case-insensitively; the oldest category wins on duplicates.
func (r *categoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Order("created_at ASC").
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&total).Error
	return total > 0, err
}

func (r *categoryRepo) LockReference(ctx context.Context, id uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Limit(1)
	// SQLite has no row locks; its writers are already serialized.
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	}

	var ids []uuid.UUID
	if err := query.Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

func (r *categoryRepo) List(ctx context.Context, f CategoryFilter, offset, limit int) ([]model.Category, int64, error) {
	var (
		categories []model.Category
		total      int64
	)

	query := r.db.WithContext(ctx).Model(&model.Category{})
	if f.IsSubCategory != nil {
		if *f.IsSubCategory {
			query = query.Where("NOT " + rootCondition)
		} else {
			query = query.Where(rootCondition)
		}
	}
	if f.ParentID != nil {
		query = query.Where("parent_id = ?", *f.ParentID)
	}
	if f.Name != "" {
		query = query.Where(likeCondition("name"), likePattern(f.Name))
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Preload("Parent").
		Preload("Attributes").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&categories).Error
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// Update saves scalar columns only; the attribute set is managed separately.
func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(category).Error
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *categoryRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Count(&total).Error
	return total, err
}

// ParentOf returns the stored parent id of a category, nil for a root.
func (r *categoryRepo) ParentOf(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Select("id", "parent_id").First(&category, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return category.ParentID, nil
}

func (r *categoryRepo) ChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("parent_id = ?", parentID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *categoryRepo) CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", parentID).Count(&total).Error
	return total, err
}

func (r *categoryRepo) DetachChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("parent_id = ?", parentID).
		Update("parent_id", nil)
	return result.RowsAffected, result.Error
}

func (r *categoryRepo) AttributeIDs(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.CategoryAttribute{}).
		Where("category_id = ?", categoryID).
		Pluck("attribute_id", &ids).Error
	return ids, err
}

// SetAttributes replaces the category's attribute set.
func (r *categoryRepo) SetAttributes(ctx context.Context, categoryID uuid.UUID, attributeIDs []uuid.UUID) error {
	if err := r.ClearAttributes(ctx, categoryID); err != nil {
		return err
	}
	if len(attributeIDs) == 0 {
		return nil
	}

	rows := make([]model.CategoryAttribute, 0, len(attributeIDs))
	seen := make(map[uuid.UUID]bool, len(attributeIDs))
	for _, id := range attributeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, model.CategoryAttribute{CategoryID: categoryID, AttributeID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *categoryRepo) ClearAttributes(ctx context.Context, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Delete(&model.CategoryAttribute{}).Error
}

func (r *categoryRepo) RemoveAttributeEverywhere(ctx context.Context, attributeID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("attribute_id = ?", attributeID).
		Delete(&model.CategoryAttribute{})
	return result.RowsAffected, result.Error
}

// EnsureSentinel returns the "Other" category, creating it on first use. The
// insert is a no-op when a concurrent caller won the race on the sentinel
// index, so the final read always sees exactly one row.
func (r *categoryRepo) EnsureSentinel(ctx context.Context) (*model.Category, error) {
	db := r.db.WithContext(ctx)

	var sentinel model.Category
	err := db.Where("is_other = ?", true).First(&sentinel).Error
	if err == nil {
		return &sentinel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	candidate := model.Category{Name: model.SentinelCategoryName, IsOther: true}
	candidate.CreatedBy = "system"
	candidate.UpdatedBy = "system"
	err = db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return nil, err
	}

	if err := db.Where("is_other = ?", true).First(&sentinel).Error; err != nil {
		return nil, err
	}
	return &sentinel, nil
}
