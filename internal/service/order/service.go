package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"feathermart/internal/domain"
	"feathermart/internal/notify"
	orderrepo "feathermart/internal/repository/order"
	"feathermart/internal/saga"
	"github.com/shopspring/decimal"
)

const (
	stepCreateOrder = "create order"
	stepCreateLines = "create order lines"
)

type cartSource interface {
	Snapshot(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	ClearCart(ctx context.Context, actor domain.Actor) error
}

type stockRepo interface {
	DecrementStock(ctx context.Context, id string, quantity int) error
}

// Pricing holds the checkout charges applied on top of the cart subtotal.
type Pricing struct {
	TaxRate       decimal.Decimal
	ShippingCents int64
}

// ParsePricing builds Pricing from a decimal tax rate such as "0.08".
func ParsePricing(taxRate string, shippingCents int64) (Pricing, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(taxRate))
	if err != nil {
		return Pricing{}, fmt.Errorf("parse tax rate %q: %w", taxRate, err)
	}
	if rate.IsNegative() || shippingCents < 0 {
		return Pricing{}, errors.New("tax rate and shipping must not be negative")
	}
	return Pricing{TaxRate: rate, ShippingCents: shippingCents}, nil
}

type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

// Compute prices a cart. Tax is rounded half up to the cent.
func (p Pricing) Compute(cart *domain.Cart) Totals {
	var subtotal int64
	for _, line := range cart.Lines {
		subtotal += line.TotalCents()
	}
	tax := decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0).IntPart()
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		ShippingCents: p.ShippingCents,
		TotalCents:    subtotal + tax + p.ShippingCents,
	}
}

// Service assembles orders from carts.
type Service struct {
	orders  orderrepo.Repository
	carts   cartSource
	stock   stockRepo
	mailer  notify.Mailer
	pricing Pricing
	logger  *log.Logger
}

func New(orders orderrepo.Repository, carts cartSource, stock stockRepo, mailer notify.Mailer, pricing Pricing, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, carts: carts, stock: stock, mailer: mailer, pricing: pricing, logger: logger}
}

// PlaceOrder turns the actor's cart into an order and returns its id.
//
// The order row and its lines are written as a two step saga; a failure
// writing the lines deletes the order again. Stock decrement, cart clearing
// and the confirmation mail happen after the order exists and only log
// their failures.
func (s *Service) PlaceOrder(ctx context.Context, actor domain.Actor, address domain.ShippingAddress) (string, error) {
	if !actor.Authenticated || actor.UserID == "" {
		return "", domain.ErrAuthenticationRequired
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return "", err
	}

	cart, err := s.carts.Snapshot(ctx, actor)
	if err != nil {
		return "", err
	}
	if cart.IsEmpty() {
		return "", domain.ErrEmptyCart
	}

	totals := s.pricing.Compute(cart)
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID:   l.ProductID,
			ProductName: l.Product.Name,
			PriceCents:  l.Product.UnitPriceCents,
			Quantity:    l.Quantity,
		})
	}

	var created *domain.Order
	run := saga.New("place order", s.logger,
		saga.Step{
			Name: stepCreateOrder,
			Action: func(ctx context.Context) error {
				o, err := s.orders.Create(ctx, domain.Order{
					UserID:          actor.UserID,
					Status:          domain.OrderStatusPending,
					SubtotalCents:   totals.SubtotalCents,
					TaxCents:        totals.TaxCents,
					ShippingCents:   totals.ShippingCents,
					TotalCents:      totals.TotalCents,
					ShippingAddress: address,
				})
				if err != nil {
					return err
				}
				created = o
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.orders.Delete(ctx, created.ID)
			},
		},
		saga.Step{
			Name: stepCreateLines,
			Action: func(ctx context.Context) error {
				return s.orders.CreateLines(ctx, created.ID, lines)
			},
		},
	)

	if err := run.Run(ctx); err != nil {
		return "", s.placeOrderErr(err, actor.UserID, created)
	}

	// The order is committed; finish the follow-ups even if the caller went away.
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := s.stock.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			s.logger.Printf("order: decrement stock order_id=%s product_id=%s qty=%d error=%v", created.ID, l.ProductID, l.Quantity, err)
		}
	}

	if err := s.carts.ClearCart(ctx, actor); err != nil {
		s.logger.Printf("order: clear cart order_id=%s user_id=%s error=%v", created.ID, actor.UserID, err)
	}

	created.Lines = lines
	if s.mailer != nil {
		if err := s.mailer.Send(ctx, notify.OrderConfirmation(*created)); err != nil {
			s.logger.Printf("order: confirmation mail order_id=%s error=%v", created.ID, err)
		}
	}

	s.logger.Printf("order: placed order_id=%s user_id=%s lines=%d total_cents=%d", created.ID, actor.UserID, len(lines), totals.TotalCents)
	return created.ID, nil
}

func (s *Service) placeOrderErr(err error, userID string, created *domain.Order) error {
	var stepErr *saga.StepError
	if !errors.As(err, &stepErr) {
		return err
	}
	switch stepErr.Step {
	case stepCreateOrder:
		s.logger.Printf("order: create user_id=%s error=%v", userID, stepErr.Err)
		return fmt.Errorf("%w: %w", domain.ErrOrderCreationFailed, stepErr.Err)
	default:
		if !stepErr.Compensated() {
			s.logger.Printf("order: orphaned order needs manual reconciliation order_id=%s user_id=%s", created.ID, userID)
		}
		return fmt.Errorf("%w: %w", domain.ErrOrderLineCreationFailed, stepErr.Err)
	}
}

// Get returns an order owned by userID.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus lets a farmer whose products are in the order move it along.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatusTransition
	}
	ok, err := s.orders.HasFarmOwner(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidStatusTransition
	}
	return s.orders.UpdateStatus(ctx, orderID, o.Status, status)
}
