package service

import (
	"context"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type AttributeService interface {
	Create(ctx context.Context, req *CreateAttributeRequest, actor string) (*model.Attribute, error)
	List(ctx context.Context, query AttributeQuery) (model.Page[model.Attribute], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Attribute, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateAttributeRequest, actor string) (*model.Attribute, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type CreateAttributeRequest struct {
	Name    string   `json:"name" validate:"required,max=255"`
	Options []string `json:"options"`
}

// UpdateAttributeRequest carries only the fields to change.
type UpdateAttributeRequest struct {
	Name    *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Options *[]string `json:"options"`
}

// AttributeQuery lists all attributes, or only those attached to Category.
type AttributeQuery struct {
	Category   string
	Pagination model.Pagination
}

type attributeService struct {
	attributeRepo repository.AttributeRepository
	categoryRepo  repository.CategoryRepository
	integrity     *IntegrityCoordinator
	events        Publisher
	log           *zap.Logger
}

func NewAttributeService(
	attributeRepo repository.AttributeRepository,
	categoryRepo repository.CategoryRepository,
	integrity *IntegrityCoordinator,
	events Publisher,
	log *zap.Logger,
) AttributeService {
	return &attributeService{
		attributeRepo: attributeRepo,
		categoryRepo:  categoryRepo,
		integrity:     integrity,
		events:        events,
		log:           log,
	}
}

func (s *attributeService) Create(ctx context.Context, req *CreateAttributeRequest, actor string) (*model.Attribute, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	options := req.Options
	if options == nil {
		options = []string{}
	}
	attribute := &model.Attribute{
		Name:    req.Name,
		Options: datatypes.JSONSlice[string](options),
	}
	attribute.CreatedBy = actor
	attribute.UpdatedBy = actor

	if err := s.attributeRepo.Create(ctx, attribute); err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityAttribute, ActionCreated, attribute.ID, attribute.Name, actor))
	return attribute, nil
}

func (s *attributeService) List(ctx context.Context, q AttributeQuery) (model.Page[model.Attribute], error) {
	var ids []uuid.UUID
	page := normalizePagination(q.Pagination)

	if q.Category != "" {
		categoryID, err := uuid.Parse(q.Category)
		if err != nil {
			return model.EmptyPage[model.Attribute](page.Page), nil
		}
		exists, err := s.categoryRepo.Exists(ctx, categoryID)
		if err != nil {
			return model.Page[model.Attribute]{}, err
		}
		if !exists {
			return model.EmptyPage[model.Attribute](page.Page), nil
		}
		ids, err = s.categoryRepo.AttributeIDs(ctx, categoryID)
		if err != nil {
			return model.Page[model.Attribute]{}, err
		}
		if len(ids) == 0 {
			return model.EmptyPage[model.Attribute](page.Page), nil
		}
	}

	attributes, total, err := s.attributeRepo.List(ctx, ids, page.Offset(), page.Limit)
	if err != nil {
		return model.Page[model.Attribute]{}, err
	}
	return model.NewPage(attributes, total, page.Page, page.Limit), nil
}

func (s *attributeService) Get(ctx context.Context, id uuid.UUID) (*model.Attribute, error) {
	attribute, err := s.attributeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityAttribute, id)
	}
	return attribute, nil
}

func (s *attributeService) Update(ctx context.Context, id uuid.UUID, req *UpdateAttributeRequest, actor string) (*model.Attribute, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	attribute, err := s.attributeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityAttribute, id)
	}

	if req.Name != nil {
		attribute.Name = *req.Name
	}
	if req.Options != nil {
		options := *req.Options
		if options == nil {
			options = []string{}
		}
		attribute.Options = datatypes.JSONSlice[string](options)
	}
	attribute.UpdatedBy = actor

	if err := s.attributeRepo.Update(ctx, attribute); err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityAttribute, ActionUpdated, attribute.ID, attribute.Name, actor))
	return attribute, nil
}

func (s *attributeService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	result, err := s.integrity.DeleteAttribute(ctx, id)
	if err != nil {
		return err
	}

	s.events.Publish(catalogEvent(EntityAttribute, ActionDeleted, id, result.Attribute.Name, actor))
	return nil
}
