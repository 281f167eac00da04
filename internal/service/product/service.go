package product

import (
	"context"
	"strings"

	"feathermart/internal/domain"
	productrepo "feathermart/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Search runs a catalog query. Paging and sort are normalized before the
// query, and the returned page echoes the values actually used.
func (s *Service) Search(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter = filter.Normalized()
	filter.Text = strings.TrimSpace(filter.Text)
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.MinPriceCents != nil && filter.MaxPriceCents != nil && *filter.MinPriceCents > *filter.MaxPriceCents {
		return &domain.ProductPage{Results: []domain.Product{}, Limit: filter.Limit, Offset: filter.Offset}, nil
	}

	results, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.Product{}
	}
	return &domain.ProductPage{Results: results, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByFarm(ctx context.Context, farmID string) ([]domain.Product, error) {
	return s.repo.ListByFarm(ctx, farmID)
}
