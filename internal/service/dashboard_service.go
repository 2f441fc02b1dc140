package service

import (
	"context"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"

	"golang.org/x/sync/errgroup"
)

// DashboardStats is a snapshot of catalog totals.
type DashboardStats struct {
	Categories    int64                      `json:"categories"`
	Attributes    int64                      `json:"attributes"`
	Items         int64                      `json:"items"`
	ItemsByStatus map[model.ItemStatus]int64 `json:"itemsByStatus"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

type dashboardService struct {
	categoryRepo  repository.CategoryRepository
	attributeRepo repository.AttributeRepository
	itemRepo      repository.ItemRepository
}

func NewDashboardService(
	categoryRepo repository.CategoryRepository,
	attributeRepo repository.AttributeRepository,
	itemRepo repository.ItemRepository,
) DashboardService {
	return &dashboardService{
		categoryRepo:  categoryRepo,
		attributeRepo: attributeRepo,
		itemRepo:      itemRepo,
	}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.Categories, err = s.categoryRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Attributes, err = s.attributeRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Items, err = s.itemRepo.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ItemsByStatus, err = s.itemRepo.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
