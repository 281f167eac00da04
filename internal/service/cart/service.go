package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"feathermart/internal/anoncart"
	"feathermart/internal/domain"
	cartrepo "feathermart/internal/repository/cart"
	"feathermart/internal/service/session"
)

// Service is the cart store. It picks the server or device backend from the
// actor on every call.
type Service struct {
	repo   cartrepo.Repository
	store  anoncart.Store
	server Backend
	device Backend
	logger *log.Logger
}

func New(repo cartrepo.Repository, store anoncart.Store, products productLookup, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Service{repo: repo, store: store, logger: logger}
	s.server = &serverBackend{repo: repo}
	s.device = &deviceBackend{
		store:    store,
		products: products,
		now:      time.Now,
		onStale: func(anonymousID string, err error) {
			logger.Printf("cart: refresh anonymous products anonymous_id=%s error=%v", anonymousID, err)
		},
	}
	return s
}

// AnonymousSnapshot is the content of an anonymous slot handed to a merge.
type AnonymousSnapshot struct {
	AnonymousID string
	Lines       []domain.CartLine
}

func (s *Service) backend(actor domain.Actor) (Backend, string) {
	if actor.Authenticated {
		return s.server, actor.UserID
	}
	return s.device, actor.AnonymousID
}

// GetCart never fails; read errors are logged and yield an empty cart.
func (s *Service) GetCart(ctx context.Context, actor domain.Actor) *domain.Cart {
	cart, err := s.Snapshot(ctx, actor)
	if err != nil {
		s.logger.Printf("cart: get authenticated=%t key=%s error=%v", actor.Authenticated, actorKey(actor), err)
		return domain.NewCart(nil)
	}
	return cart
}

// Snapshot reads the cart and reports read failures.
func (s *Service) Snapshot(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	b, key := s.backend(actor)
	if key == "" {
		return domain.NewCart(nil), nil
	}
	lines, err := b.Lines(ctx, key)
	if err != nil {
		return nil, storageErr(err)
	}
	return domain.NewCart(lines), nil
}

// AddItem adds quantity of a product, incrementing an existing line. Anonymous
// actors must pass the product snapshot.
func (s *Service) AddItem(ctx context.Context, actor domain.Actor, productID string, quantity int, snapshot *domain.ProductSnapshot) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrProductNotFound
	}
	if !domain.ValidLineQuantity(quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	b, key := s.backend(actor)
	if key == "" {
		return nil, domain.ErrAuthenticationRequired
	}
	if err := b.Add(ctx, key, productID, quantity, snapshot); err != nil {
		s.logger.Printf("cart: add authenticated=%t key=%s product_id=%s qty=%d error=%v", actor.Authenticated, key, productID, quantity, err)
		return nil, storageErr(err)
	}
	return s.GetCart(ctx, actor), nil
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateItemQuantity(ctx context.Context, actor domain.Actor, lineID string, quantity int, productID string) (*domain.Cart, error) {
	if quantity > domain.MaxLineQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	b, key := s.backend(actor)
	if key == "" {
		if quantity <= 0 {
			return domain.NewCart(nil), nil
		}
		return nil, domain.ErrNotFound
	}
	if err := b.SetQuantity(ctx, key, strings.TrimSpace(lineID), strings.TrimSpace(productID), quantity); err != nil {
		s.logger.Printf("cart: update authenticated=%t key=%s line_id=%s qty=%d error=%v", actor.Authenticated, key, lineID, quantity, err)
		return nil, storageErr(err)
	}
	return s.GetCart(ctx, actor), nil
}

// RemoveItem deletes a line. Removing a missing line succeeds.
func (s *Service) RemoveItem(ctx context.Context, actor domain.Actor, lineID, productID string) (*domain.Cart, error) {
	b, key := s.backend(actor)
	if key == "" {
		return domain.NewCart(nil), nil
	}
	if err := b.Remove(ctx, key, strings.TrimSpace(lineID), strings.TrimSpace(productID)); err != nil {
		s.logger.Printf("cart: remove authenticated=%t key=%s line_id=%s error=%v", actor.Authenticated, key, lineID, err)
		return nil, storageErr(err)
	}
	return s.GetCart(ctx, actor), nil
}

func (s *Service) ClearCart(ctx context.Context, actor domain.Actor) error {
	b, key := s.backend(actor)
	if key == "" {
		return nil
	}
	if err := b.Clear(ctx, key); err != nil {
		s.logger.Printf("cart: clear authenticated=%t key=%s error=%v", actor.Authenticated, key, err)
		return storageErr(err)
	}
	return nil
}

// MergeAnonymousIntoAuthenticated folds the anonymous lines into the user's
// server cart in one transaction, then empties the anonymous slot. A failed
// merge leaves the slot untouched.
func (s *Service) MergeAnonymousIntoAuthenticated(ctx context.Context, userID string, snapshot AnonymousSnapshot) error {
	if userID == "" {
		return domain.ErrAuthenticationRequired
	}
	if len(snapshot.Lines) > 0 {
		lines := make([]cartrepo.MergeLine, 0, len(snapshot.Lines))
		for _, l := range snapshot.Lines {
			lines = append(lines, cartrepo.MergeLine{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if err := s.repo.MergeLines(ctx, userID, lines); err != nil {
			s.logger.Printf("cart: merge user_id=%s anonymous_id=%s lines=%d error=%v", userID, snapshot.AnonymousID, len(lines), err)
			return storageErr(err)
		}
	}
	if snapshot.AnonymousID == "" {
		return nil
	}
	if err := s.store.Remove(ctx, snapshot.AnonymousID); err != nil {
		s.logger.Printf("cart: merge clear slot user_id=%s anonymous_id=%s error=%v", userID, snapshot.AnonymousID, err)
		return storageErr(err)
	}
	s.logger.Printf("cart: merged user_id=%s anonymous_id=%s lines=%d", userID, snapshot.AnonymousID, len(snapshot.Lines))
	return nil
}

// HandleAuthStateChange is registered as a login listener.
func (s *Service) HandleAuthStateChange(ctx context.Context, event session.AuthEvent) {
	if event.UserID == "" || event.AnonymousID == "" {
		return
	}
	lines, err := s.store.Load(ctx, event.AnonymousID)
	if err != nil {
		s.logger.Printf("cart: load anonymous slot anonymous_id=%s error=%v", event.AnonymousID, err)
		return
	}
	if len(lines) == 0 {
		return
	}
	_ = s.MergeAnonymousIntoAuthenticated(ctx, event.UserID, AnonymousSnapshot{AnonymousID: event.AnonymousID, Lines: lines})
}

func actorKey(actor domain.Actor) string {
	if actor.Authenticated {
		return actor.UserID
	}
	return actor.AnonymousID
}

var typedErrors = []error{
	domain.ErrNotFound,
	domain.ErrProductNotFound,
	domain.ErrMissingProductContext,
	domain.ErrInvalidQuantity,
	domain.ErrAuthenticationRequired,
	domain.ErrStorageUnavailable,
}

// storageErr passes typed cart failures through and marks everything else as
// a storage failure.
func storageErr(err error) error {
	for _, typed := range typedErrors {
		if errors.Is(err, typed) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
}
