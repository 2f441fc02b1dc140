package service

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultPageSize = 10

func normalizePagination(p model.Pagination) model.Pagination {
	return model.NewPagination(p.Page, p.Limit, defaultPageSize, 0)
}

// ItemQuery is the raw item filter as clients send it. Category, SubCategory
// and the Attributes keys may each be an id or a case-insensitive name.
type ItemQuery struct {
	Category    string
	SubCategory string
	Status      string
	Name        string
	Attributes  map[string]string
	Pagination  model.Pagination
}

// FilterResolver turns an ItemQuery into a concrete item filter. A reference
// that resolves to nothing voids the whole query.
type FilterResolver struct {
	categoryRepo  repository.CategoryRepository
	attributeRepo repository.AttributeRepository
	itemRepo      repository.ItemRepository
}

func NewFilterResolver(
	categoryRepo repository.CategoryRepository,
	attributeRepo repository.AttributeRepository,
	itemRepo repository.ItemRepository,
) *FilterResolver {
	return &FilterResolver{
		categoryRepo:  categoryRepo,
		attributeRepo: attributeRepo,
		itemRepo:      itemRepo,
	}
}

// Find resolves q and runs it. Unresolvable references produce an empty page.
func (r *FilterResolver) Find(ctx context.Context, q ItemQuery) (model.Page[model.Item], error) {
	page := normalizePagination(q.Pagination)

	filter, ok, err := r.Resolve(ctx, q)
	if err != nil {
		return model.Page[model.Item]{}, err
	}
	if !ok {
		return model.EmptyPage[model.Item](page.Page), nil
	}

	items, total, err := r.itemRepo.Find(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return model.Page[model.Item]{}, err
	}
	return model.NewPage(items, total, page.Page, page.Limit), nil
}

// Resolve looks up every reference in q. ok is false when any of them does
// not resolve. The category and attribute lookups run concurrently.
func (r *FilterResolver) Resolve(ctx context.Context, q ItemQuery) (filter repository.ItemFilter, ok bool, err error) {
	filter = repository.ItemFilter{
		Status: model.ItemStatus(q.Status),
		Name:   q.Name,
	}

	keys := slices.Sorted(maps.Keys(q.Attributes))
	attributes := make([]*model.Attribute, len(keys))
	var categoryIDs []uuid.UUID
	categoryMissing := false

	g, gctx := errgroup.WithContext(ctx)

	switch {
	case q.SubCategory != "":
		g.Go(func() error {
			category, err := r.resolveCategory(gctx, q.SubCategory)
			if err != nil {
				return err
			}
			if category == nil {
				categoryMissing = true
				return nil
			}
			categoryIDs = []uuid.UUID{category.ID}
			return nil
		})
	case q.Category != "":
		g.Go(func() error {
			category, err := r.resolveCategory(gctx, q.Category)
			if err != nil {
				return err
			}
			if category == nil {
				categoryMissing = true
				return nil
			}
			children, err := r.categoryRepo.ChildIDs(gctx, category.ID)
			if err != nil {
				return err
			}
			categoryIDs = append([]uuid.UUID{category.ID}, children...)
			return nil
		})
	}

	for i, key := range keys {
		g.Go(func() error {
			attribute, err := r.resolveAttribute(gctx, key)
			if err != nil {
				return err
			}
			attributes[i] = attribute
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return repository.ItemFilter{}, false, err
	}
	if categoryMissing {
		return repository.ItemFilter{}, false, nil
	}
	filter.CategoryIDs = categoryIDs

	for i, attribute := range attributes {
		if attribute == nil {
			return repository.ItemFilter{}, false, nil
		}
		filter.Attributes = append(filter.Attributes, repository.AttributeMatch{
			AttributeID: attribute.ID,
			Value:       q.Attributes[keys[i]],
		})
	}
	return filter, true, nil
}

// resolveCategory returns nil without error when ref matches nothing.
func (r *FilterResolver) resolveCategory(ctx context.Context, ref string) (*model.Category, error) {
	var (
		category *model.Category
		err      error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		category, err = r.categoryRepo.FindByID(ctx, id)
	} else {
		category, err = r.categoryRepo.FindByName(ctx, ref)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return category, err
}

// resolveAttribute returns nil without error when ref matches nothing.
func (r *FilterResolver) resolveAttribute(ctx context.Context, ref string) (*model.Attribute, error) {
	var (
		attribute *model.Attribute
		err       error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		attribute, err = r.attributeRepo.FindByID(ctx, id)
	} else {
		attribute, err = r.attributeRepo.FindByName(ctx, ref)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return attribute, err
}
