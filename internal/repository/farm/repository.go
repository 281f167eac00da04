package farm

import (
	"context"

	"feathermart/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Farm, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Farm, error)
	Create(ctx context.Context, farm *domain.Farm) (*domain.Farm, error)
	Update(ctx context.Context, farm *domain.Farm) (*domain.Farm, error)
}
