package service

import (
	"context"
	"errors"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryService interface {
	Create(ctx context.Context, req *CreateCategoryRequest, actor string) (*model.Category, error)
	List(ctx context.Context, query CategoryQuery) (model.Page[model.Category], error)
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest, actor string) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

type CreateCategoryRequest struct {
	Name       string   `json:"name" validate:"required,max=255"`
	Parent     *string  `json:"parent"`
	Attributes []string `json:"attributes"`
}

// UpdateCategoryRequest carries only the fields to change. An empty Parent
// moves the category to the root.
type UpdateCategoryRequest struct {
	Name       *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Parent     *string   `json:"parent"`
	Attributes *[]string `json:"attributes"`
}

// CategoryQuery filters the category list; Category is a parent id.
type CategoryQuery struct {
	SubCategory *bool
	Category    string
	Name        string
	Pagination  model.Pagination
}

type categoryService struct {
	db            *gorm.DB
	categoryRepo  repository.CategoryRepository
	attributeRepo repository.AttributeRepository
	itemRepo      repository.ItemRepository
	integrity     *IntegrityCoordinator
	events        Publisher
	log           *zap.Logger
}

func NewCategoryService(
	db *gorm.DB,
	categoryRepo repository.CategoryRepository,
	attributeRepo repository.AttributeRepository,
	itemRepo repository.ItemRepository,
	integrity *IntegrityCoordinator,
	events Publisher,
	log *zap.Logger,
) CategoryService {
	return &categoryService{
		db:            db,
		categoryRepo:  categoryRepo,
		attributeRepo: attributeRepo,
		itemRepo:      itemRepo,
		integrity:     integrity,
		events:        events,
		log:           log,
	}
}

func (s *categoryService) Create(ctx context.Context, req *CreateCategoryRequest, actor string) (*model.Category, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &model.Category{Name: req.Name}
	if req.Parent != nil && *req.Parent != "" {
		parentID, err := parseParentID(*req.Parent)
		if err != nil {
			return nil, err
		}
		category.ParentID = &parentID
	}
	attributeIDs, err := resolveAttributeIDs(ctx, s.attributeRepo, req.Attributes)
	if err != nil {
		return nil, err
	}
	category.CreatedBy = actor
	category.UpdatedBy = actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := s.categoryRepo.WithTx(tx)
		if category.ParentID != nil {
			if err := referenceParent(ctx, categories, *category.ParentID, *req.Parent); err != nil {
				return err
			}
		}
		if err := categories.Create(ctx, category); err != nil {
			return err
		}
		return categories.SetAttributes(ctx, category.ID, attributeIDs)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityCategory, ActionCreated, category.ID, category.Name, actor))
	return s.Get(ctx, category.ID)
}

func (s *categoryService) List(ctx context.Context, q CategoryQuery) (model.Page[model.Category], error) {
	page := normalizePagination(q.Pagination)
	filter := repository.CategoryFilter{
		IsSubCategory: q.SubCategory,
		Name:          q.Name,
	}

	if q.Category != "" {
		parentID, err := uuid.Parse(q.Category)
		if err != nil {
			return model.EmptyPage[model.Category](page.Page), nil
		}
		exists, err := s.categoryRepo.Exists(ctx, parentID)
		if err != nil {
			return model.Page[model.Category]{}, err
		}
		if !exists {
			return model.EmptyPage[model.Category](page.Page), nil
		}
		filter.ParentID = &parentID
	}

	categories, total, err := s.categoryRepo.List(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return model.Page[model.Category]{}, err
	}
	for i := range categories {
		hideOrphanedParent(&categories[i])
	}
	return model.NewPage(categories, total, page.Page, page.Limit), nil
}

// Get returns the category with its child and item counts computed now.
func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityCategory, id)
	}
	hideOrphanedParent(category)

	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.CountByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	category.SubCategoryCount = &children
	category.ItemCount = &items
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req *UpdateCategoryRequest, actor string) (*model.Category, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, EntityCategory, id)
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Parent != nil {
		if *req.Parent == "" {
			category.ParentID = nil
		} else {
			parentID, err := parseParentID(*req.Parent)
			if err != nil {
				return nil, err
			}
			category.ParentID = &parentID
		}
		category.Parent = nil
	}

	var attributeIDs []uuid.UUID
	if req.Attributes != nil {
		if attributeIDs, err = resolveAttributeIDs(ctx, s.attributeRepo, *req.Attributes); err != nil {
			return nil, err
		}
	}
	category.UpdatedBy = actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := s.categoryRepo.WithTx(tx)
		if req.Parent != nil && category.ParentID != nil {
			if err := referenceParent(ctx, categories, *category.ParentID, *req.Parent); err != nil {
				return err
			}
			if err := checkNoCycle(ctx, categories, id, *category.ParentID, *req.Parent); err != nil {
				return err
			}
		}
		if err := categories.Update(ctx, category); err != nil {
			return err
		}
		if req.Attributes != nil {
			return categories.SetAttributes(ctx, id, attributeIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(catalogEvent(EntityCategory, ActionUpdated, id, category.Name, actor))
	return s.Get(ctx, id)
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	result, err := s.integrity.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}

	s.events.Publish(catalogEvent(EntityCategory, ActionDeleted, id, result.Category.Name, actor))
	return nil
}

func parseParentID(ref string) (uuid.UUID, error) {
	parentID, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, &InvalidReferenceError{Field: "parent", Value: ref}
	}
	return parentID, nil
}

// referenceParent requires parentID to name an existing category and keeps it
// from being deleted until the transaction behind categories ends.
func referenceParent(ctx context.Context, categories repository.CategoryRepository, parentID uuid.UUID, ref string) error {
	exists, err := categories.LockReference(ctx, parentID)
	if err != nil {
		return err
	}
	if !exists {
		return &InvalidReferenceError{Field: "parent", Value: ref}
	}
	return nil
}

// checkNoCycle walks up from parentID and fails if it reaches id.
func checkNoCycle(ctx context.Context, categories repository.CategoryRepository, id, parentID uuid.UUID, ref string) error {
	seen := map[uuid.UUID]bool{}
	for current := &parentID; current != nil; {
		if *current == id {
			return &InvalidReferenceError{Field: "parent", Value: ref}
		}
		if seen[*current] {
			return nil
		}
		seen[*current] = true

		next, err := categories.ParentOf(ctx, *current)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// hideOrphanedParent reports a category whose parent row is gone as a root.
func hideOrphanedParent(category *model.Category) {
	if category.ParentID != nil && category.Parent == nil {
		category.ParentID = nil
		category.IsSubCategory = false
	}
}

// resolveAttributeIDs parses refs and checks that each names an existing attribute.
func resolveAttributeIDs(ctx context.Context, repo repository.AttributeRepository, refs []string) ([]uuid.UUID, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, &InvalidReferenceError{Field: "attributes", Value: ref}
		}
		ids = append(ids, id)
	}

	found, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, a := range found {
		known[a.ID] = true
	}
	for i, id := range ids {
		if !known[id] {
			return nil, &InvalidReferenceError{Field: "attributes", Value: refs[i]}
		}
	}
	return ids, nil
}
