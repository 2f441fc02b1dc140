package service

import (
	"context"
	"fmt"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityItemAttribute = "item attribute"

type ItemService interface {
	Create(ctx context.Context, req *CreateItemRequest, actor string) (*model.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Item, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateItemRequest, actor string) (*model.Item, error)
	UpdateAttributeValue(ctx context.Context, itemID, attributeID uuid.UUID, value *string, actor string) (*model.Item, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	FindWithFilters(ctx context.Context, query ItemQuery) (model.Page[model.Item], error)
}

// ItemAttributeInput assigns Value to the attribute AttributeID.
type ItemAttributeInput struct {
	AttributeID string  `json:"attributeId"`
	Value       *string `json:"value"`
}

type CreateItemRequest struct {
	Name       string               `json:"name" validate:"required,max=255"`
	Category   string               `json:"category" validate:"required"`
	Attributes []ItemAttributeInput `json:"attributes"`
	Status     model.ItemStatus     `json:"status" validate:"omitempty,oneof=IN_WAREHOUSE OUT_OF_WAREHOUSE UNKNOWN"`
}

// UpdateItemRequest carries only the fields to change. Attributes, when
// present, replaces the whole list.
type UpdateItemRequest struct {
	Name       *string               `json:"name" validate:"omitempty,min=1,max=255"`
	Category   *string               `json:"category"`
	Status     *model.ItemStatus     `json:"status" validate:"omitempty,oneof=IN_WAREHOUSE OUT_OF_WAREHOUSE UNKNOWN"`
	Attributes *[]ItemAttributeInput `json:"attributes"`
}

type itemService struct {
	db            *gorm.DB
	itemRepo      repository.ItemRepository
	categoryRepo  repository.CategoryRepository
	attributeRepo repository.AttributeRepository
	resolver      *FilterResolver
	events        Publisher
	log           *zap.Logger
}

func NewItemService(
	db *gorm.DB,
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	attributeRepo repository.AttributeRepository,
	resolver *FilterResolver,
	events Publisher,
	log *zap.Logger,
) ItemService {
	return &itemService{
		db:            db,
		itemRepo:      itemRepo,
		categoryRepo:  categoryRepo,
		attributeRepo: attributeRepo,
		resolver:      resolver,
		events:        events,
		log:           log,
	}
}

func (s *itemService) Create(ctx context.Context, req *CreateItemRequest, actor string) (*model.Item, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	categoryID, err := parseCategoryID(req.Category)
	if err != nil {
		return nil, err
	}
	entries, err := s.resolveEntries(ctx, req.Attributes)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		Name:       req.Name,
		CategoryID: &categoryID,
		Status:     req.Status,
	}
	if item.Status == "" {
		item.Status = model.StatusInWarehouse
	}
	item.CreatedBy = actor
	item.UpdatedBy = actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := referenceCategory(ctx, s.categoryRepo.WithTx(tx), categoryID); err != nil {
			return err
		}
		items := s.itemRepo.WithTx(tx)
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		return items.ReplaceAttributes(ctx, item.ID, entries)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityItem, ActionCreated, item.ID, item.Name, actor))
	return s.Get(ctx, item.ID)
}

func (s *itemService) Get(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityItem, id)
	}
	return item, nil
}

func (s *itemService) Update(ctx context.Context, id uuid.UUID, req *UpdateItemRequest, actor string) (*model.Item, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityItem, id)
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.Category != nil {
		categoryID, err := parseCategoryID(*req.Category)
		if err != nil {
			return nil, err
		}
		item.CategoryID = &categoryID
		item.Category = nil
	}

	var entries []model.ItemAttribute
	if req.Attributes != nil {
		if entries, err = s.resolveEntries(ctx, *req.Attributes); err != nil {
			return nil, err
		}
	}
	item.UpdatedBy = actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Category != nil {
			if err := referenceCategory(ctx, s.categoryRepo.WithTx(tx), *item.CategoryID); err != nil {
				return err
			}
		}
		items := s.itemRepo.WithTx(tx)
		if err := items.Update(ctx, item); err != nil {
			return err
		}
		if req.Attributes != nil {
			return items.ReplaceAttributes(ctx, id, entries)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityItem, ActionUpdated, id, item.Name, actor))
	return s.Get(ctx, id)
}

// UpdateAttributeValue overwrites the value of one attribute entry and leaves
// the rest of the item untouched.
func (s *itemService) UpdateAttributeValue(ctx context.Context, itemID, attributeID uuid.UUID, value *string, actor string) (*model.Item, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, translateNotFound(err, EntityItem, itemID)
	}

	rows, err := s.itemRepo.UpdateAttributeValue(ctx, itemID, attributeID, value)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, notFound(entityItemAttribute, attributeID)
	}

	s.events.Publish(catalogEvent(EntityItem, ActionUpdated, itemID, item.Name, actor))
	return s.Get(ctx, itemID)
}

func (s *itemService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	var name string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := s.itemRepo.WithTx(tx)

		item, err := items.FindByID(ctx, id)
		if err != nil {
			return translateNotFound(err, EntityItem, id)
		}
		name = item.Name

		rows, err := items.Delete(ctx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return notFound(EntityItem, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(catalogEvent(EntityItem, ActionDeleted, id, name, actor))
	return nil
}

func (s *itemService) FindWithFilters(ctx context.Context, q ItemQuery) (model.Page[model.Item], error) {
	return s.resolver.Find(ctx, q)
}

func parseCategoryID(ref string) (uuid.UUID, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, &NotFoundError{Entity: EntityCategory, ID: ref}
	}
	return id, nil
}

// referenceCategory fails with NotFound unless the category exists, and keeps
// it from being deleted until the transaction behind categories ends.
func referenceCategory(ctx context.Context, categories repository.CategoryRepository, id uuid.UUID) error {
	exists, err := categories.LockReference(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(EntityCategory, id)
	}
	return nil
}

// resolveEntries checks every referenced attribute exists and keeps the input order.
func (s *itemService) resolveEntries(ctx context.Context, inputs []ItemAttributeInput) ([]model.ItemAttribute, error) {
	refs := make([]string, len(inputs))
	for i, in := range inputs {
		refs[i] = in.AttributeID
	}

	ids, err := resolveAttributeIDs(ctx, s.attributeRepo, refs)
	if err != nil {
		return nil, err
	}

	entries := make([]model.ItemAttribute, len(inputs))
	seen := make(map[uuid.UUID]bool, len(inputs))
	for i, in := range inputs {
		if seen[ids[i]] {
			return nil, fmt.Errorf("%w: attribute %s listed more than once", ErrValidation, ids[i])
		}
		seen[ids[i]] = true
		entries[i] = model.ItemAttribute{AttributeID: ids[i], Value: in.Value}
	}
	return entries, nil
}
