package service

import (
	"context"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttributeCascade summarizes what deleting an attribute changed.
type AttributeCascade struct {
	Attribute        model.Attribute
	CategoriesPruned int64
	ItemsPruned      int64
}

// CategoryCascade summarizes what deleting a category changed. ReassignedTo
// is nil when dependent items had their category cleared.
type CategoryCascade struct {
	Category         model.Category
	ChildrenDetached int64
	ItemsReassigned  int64
	ReassignedTo     *uuid.UUID
}

// IntegrityCoordinator propagates attribute and category deletes to the rows
// that reference them. Each cascade commits or rolls back as a whole.
type IntegrityCoordinator struct {
	db            *gorm.DB
	attributeRepo repository.AttributeRepository
	categoryRepo  repository.CategoryRepository
	itemRepo      repository.ItemRepository
	orphanPolicy  string
	log           *zap.Logger
}

func NewIntegrityCoordinator(
	db *gorm.DB,
	attributeRepo repository.AttributeRepository,
	categoryRepo repository.CategoryRepository,
	itemRepo repository.ItemRepository,
	orphanPolicy string,
	log *zap.Logger,
) *IntegrityCoordinator {
	if orphanPolicy == "" {
		orphanPolicy = config.OrphanPolicyOther
	}
	return &IntegrityCoordinator{
		db:            db,
		attributeRepo: attributeRepo,
		categoryRepo:  categoryRepo,
		itemRepo:      itemRepo,
		orphanPolicy:  orphanPolicy,
		log:           log,
	}
}

// DeleteAttribute removes the attribute, detaches it from every category and
// drops every item entry that references it.
func (c *IntegrityCoordinator) DeleteAttribute(ctx context.Context, id uuid.UUID) (*AttributeCascade, error) {
	var result AttributeCascade

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attributes := c.attributeRepo.WithTx(tx)

		attribute, err := attributes.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, EntityAttribute, id)
		}
		result.Attribute = *attribute

		rows, err := attributes.Delete(ctx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound(EntityAttribute, id)
		}

		if result.CategoriesPruned, err = c.categoryRepo.WithTx(tx).RemoveAttributeEverywhere(ctx, id); err != nil {
			return err
		}
		if result.ItemsPruned, err = c.itemRepo.WithTx(tx).RemoveAttributeEverywhere(ctx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("attribute deleted",
		zap.String("attribute_id", id.String()),
		zap.Int64("categories_pruned", result.CategoriesPruned),
		zap.Int64("item_entries_pruned", result.ItemsPruned),
	)
	return &result, nil
}

// DeleteCategory removes the category, turns its children into roots and
// resolves its items with the configured orphan policy. Items of a deleted
// sentinel are always cleared.
func (c *IntegrityCoordinator) DeleteCategory(ctx context.Context, id uuid.UUID) (*CategoryCascade, error) {
	var result CategoryCascade

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := c.categoryRepo.WithTx(tx)
		items := c.itemRepo.WithTx(tx)

		category, err := categories.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, EntityCategory, id)
		}
		result.Category = *category

		rows, err := categories.Delete(ctx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound(EntityCategory, id)
		}

		if result.ChildrenDetached, err = categories.DetachChildren(ctx, id); err != nil {
			return err
		}
		if err := categories.ClearAttributes(ctx, id); err != nil {
			return err
		}

		dependents, err := items.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if dependents == 0 {
			return nil
		}

		if c.orphanPolicy == config.OrphanPolicyOther && !category.IsOther {
			sentinel, err := categories.EnsureSentinel(ctx)
			if err != nil {
				return err
			}
			result.ReassignedTo = &sentinel.ID
		}
		result.ItemsReassigned, err = items.ReassignCategory(ctx, id, result.ReassignedTo)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("category_id", id.String()),
		zap.Int64("children_detached", result.ChildrenDetached),
		zap.Int64("items_reassigned", result.ItemsReassigned),
	}
	if result.ReassignedTo != nil {
		fields = append(fields, zap.String("sentinel_id", result.ReassignedTo.String()))
	}
	c.log.Info("category deleted", fields...)
	return &result, nil
}
