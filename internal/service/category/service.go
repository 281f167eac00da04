package category

import (
	"context"

	"feathermart/internal/domain"
	"feathermart/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// Upsert creates or renames a category by key. Slug defaults to the key.
func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c = c.Normalize()
	if c.Key == "" || c.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.repo.Upsert(ctx, c)
}
