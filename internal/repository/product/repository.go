package product

import (
	"context"

	"feathermart/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)
	ListByFarm(ctx context.Context, farmID string) ([]domain.Product, error)
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product domain.Product) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) error
}
