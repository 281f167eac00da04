package cart

import (
	"context"
	"time"

	"feathermart/internal/anoncart"
	"feathermart/internal/domain"
	cartrepo "feathermart/internal/repository/cart"
	"github.com/google/uuid"
)

// Backend is one storage variant of the cart. key is the user id for the
// server variant and the anonymous id for the device variant.
type Backend interface {
	Lines(ctx context.Context, key string) ([]domain.CartLine, error)
	Add(ctx context.Context, key, productID string, quantity int, snapshot *domain.ProductSnapshot) error
	SetQuantity(ctx context.Context, key, lineID, productID string, quantity int) error
	Remove(ctx context.Context, key, lineID, productID string) error
	Clear(ctx context.Context, key string) error
}

type productLookup interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// serverBackend keeps lines as rows owned by a user.
type serverBackend struct {
	repo cartrepo.Repository
}

func (b *serverBackend) Lines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return b.repo.ListByUser(ctx, userID)
}

func (b *serverBackend) Add(ctx context.Context, userID, productID string, quantity int, _ *domain.ProductSnapshot) error {
	return b.repo.AddOrIncrement(ctx, userID, productID, quantity)
}

func (b *serverBackend) SetQuantity(ctx context.Context, userID, lineID, _ string, quantity int) error {
	if quantity <= 0 {
		return b.repo.Delete(ctx, userID, lineID)
	}
	return b.repo.SetQuantity(ctx, userID, lineID, quantity)
}

func (b *serverBackend) Remove(ctx context.Context, userID, lineID, _ string) error {
	return b.repo.Delete(ctx, userID, lineID)
}

func (b *serverBackend) Clear(ctx context.Context, userID string) error {
	return b.repo.DeleteAll(ctx, userID)
}

// deviceBackend keeps lines in the anonymous slot, keyed by product.
type deviceBackend struct {
	store    anoncart.Store
	products productLookup
	now      func() time.Time
	onStale  func(anonymousID string, err error)
}

// Lines returns the slot contents with snapshots refreshed from the catalog.
// Lines for products the catalog no longer has are dropped. When the catalog
// lookup fails the stored snapshots are kept.
func (b *deviceBackend) Lines(ctx context.Context, anonymousID string) ([]domain.CartLine, error) {
	lines, err := b.store.Load(ctx, anonymousID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || b.products == nil {
		return lines, nil
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	live, err := b.products.GetByIDs(ctx, ids)
	if err != nil {
		if b.onStale != nil {
			b.onStale(anonymousID, err)
		}
		return lines, nil
	}
	kept := lines[:0]
	for _, l := range lines {
		p, ok := live[l.ProductID]
		if !ok {
			continue
		}
		l.Product = p.Snapshot()
		kept = append(kept, l)
	}
	return kept, nil
}

// catalogSnapshot prefers the catalog's view of the product over the one the
// client sent. It falls back to the client snapshot only when the catalog is
// unreachable.
func (b *deviceBackend) catalogSnapshot(ctx context.Context, anonymousID, productID string, sent domain.ProductSnapshot) (domain.ProductSnapshot, error) {
	if b.products == nil {
		return sent, nil
	}
	live, err := b.products.GetByIDs(ctx, []string{productID})
	if err != nil {
		if b.onStale != nil {
			b.onStale(anonymousID, err)
		}
		return sent, nil
	}
	p, ok := live[productID]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	return p.Snapshot(), nil
}

func (b *deviceBackend) Add(ctx context.Context, anonymousID, productID string, quantity int, snapshot *domain.ProductSnapshot) error {
	if snapshot == nil {
		return domain.ErrMissingProductContext
	}
	product, err := b.catalogSnapshot(ctx, anonymousID, productID, *snapshot)
	if err != nil {
		return err
	}
	lines, err := b.store.Load(ctx, anonymousID)
	if err != nil {
		return err
	}
	cart := domain.Cart{Lines: lines}
	if i := cart.LineByProduct(productID); i >= 0 {
		if quantity > domain.MaxLineQuantity-lines[i].Quantity {
			return domain.ErrInvalidQuantity
		}
		lines[i].Quantity += quantity
		lines[i].Product = product
	} else {
		lines = append(lines, domain.CartLine{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
			Product:   product,
			CreatedAt: b.now().UTC(),
		})
	}
	return b.store.Save(ctx, anonymousID, lines)
}

func (b *deviceBackend) SetQuantity(ctx context.Context, anonymousID, lineID, productID string, quantity int) error {
	if productID == "" {
		return domain.ErrMissingProductContext
	}
	lines, err := b.store.Load(ctx, anonymousID)
	if err != nil {
		return err
	}
	cart := domain.Cart{Lines: lines}
	i := cart.LineByProduct(productID)
	if i < 0 {
		if quantity <= 0 {
			return nil
		}
		return domain.ErrNotFound
	}
	if quantity <= 0 {
		lines = append(lines[:i], lines[i+1:]...)
	} else {
		lines[i].Quantity = quantity
	}
	return b.store.Save(ctx, anonymousID, lines)
}

func (b *deviceBackend) Remove(ctx context.Context, anonymousID, lineID, productID string) error {
	lines, err := b.store.Load(ctx, anonymousID)
	if err != nil {
		return err
	}
	kept := lines[:0]
	removed := false
	for _, l := range lines {
		if (productID != "" && l.ProductID == productID) || (productID == "" && l.ID == lineID) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	if !removed {
		return nil
	}
	return b.store.Save(ctx, anonymousID, kept)
}

func (b *deviceBackend) Clear(ctx context.Context, anonymousID string) error {
	return b.store.Remove(ctx, anonymousID)
}
