package repository

import (
	"context"

	"go-catalog-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttributeRepository interface {
	Create(ctx context.Context, attribute *model.Attribute) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Attribute, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Attribute, error)
	FindByName(ctx context.Context, name string) (*model.Attribute, error)
	// List pages over all attributes, or only those in ids when ids is non-nil.
	List(ctx context.Context, ids []uuid.UUID, offset, limit int) ([]model.Attribute, int64, error)
	Update(ctx context.Context, attribute *model.Attribute) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx *gorm.DB) AttributeRepository
}

type attributeRepo struct {
	db *gorm.DB
}

func NewAttributeRepo(db *gorm.DB) AttributeRepository {
	return &attributeRepo{db}
}

func (r *attributeRepo) WithTx(tx *gorm.DB) AttributeRepository {
	return &attributeRepo{tx}
}

func (r *attributeRepo) Create(ctx context.Context, attribute *model.Attribute) error {
	return r.db.WithContext(ctx).Create(attribute).Error
}

func (r *attributeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Attribute, error) {
	var attribute model.Attribute
	if err := r.db.WithContext(ctx).First(&attribute, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attribute, nil
}

func (r *attributeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Attribute, error) {
	var attributes []model.Attribute
	if len(ids) == 0 {
		return attributes, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&attributes).Error; err != nil {
		return nil, err
	}
	return attributes, nil
}

// FindByName matches case-insensitively; the oldest attribute wins on duplicates.
func (r *attributeRepo) FindByName(ctx context.Context, name string) (*model.Attribute, error) {
	var attribute model.Attribute
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		Order("created_at ASC").
		First(&attribute).Error
	if err != nil {
		return nil, err
	}
	return &attribute, nil
}

func (r *attributeRepo) List(ctx context.Context, ids []uuid.UUID, offset, limit int) ([]model.Attribute, int64, error) {
	var (
		attributes []model.Attribute
		total      int64
	)

	query := r.db.WithContext(ctx).Model(&model.Attribute{})
	if ids != nil {
		query = query.Where("id IN ?", ids)
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&attributes).Error; err != nil {
		return nil, 0, err
	}
	return attributes, total, nil
}

func (r *attributeRepo) Update(ctx context.Context, attribute *model.Attribute) error {
	return r.db.WithContext(ctx).Save(attribute).Error
}

func (r *attributeRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&model.Attribute{}, "id = ?", id)
	return result.RowsAffected, result.Error
}

func (r *attributeRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Attribute{}).Count(&total).Error
	return total, err
}
