package cart

import (
	"context"

	"feathermart/internal/domain"
)

// MergeLine is a product quantity folded into a user's cart on login.
type MergeLine struct {
	ProductID string
	Quantity  int
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddOrIncrement(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error
	Delete(ctx context.Context, userID, lineID string) error
	DeleteAll(ctx context.Context, userID string) error
	MergeLines(ctx context.Context, userID string, lines []MergeLine) error
}
