package order

import (
	"context"

	"feathermart/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, order domain.Order) (*domain.Order, error)
	CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	Delete(ctx context.Context, orderID string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	// HasFarmOwner reports whether any line of the order is for a product of a farm owned by ownerID.
	HasFarmOwner(ctx context.Context, orderID, ownerID string) (bool, error)
}
