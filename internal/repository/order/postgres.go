package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"feathermart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `
SELECT id::text, user_id::text, status, subtotal_cents, tax_cents, shipping_cents, total_cents,
       shipping_address, created_at, updated_at
FROM orders
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, order domain.Order) (*domain.Order, error) {
	addr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	const q = `
INSERT INTO orders (user_id, status, subtotal_cents, tax_cents, shipping_cents, total_cents, shipping_address)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
RETURNING id::text, created_at, updated_at
`
	out := order
	err = r.pool.QueryRow(ctx, q, order.UserID, string(order.Status), order.SubtotalCents, order.TaxCents,
		order.ShippingCents, order.TotalCents, string(addr)).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", order.UserID, err)
		return nil, err
	}
	out.Lines = nil
	r.logger.Printf("order repo: created id=%s user_id=%s total_cents=%d", out.ID, out.UserID, out.TotalCents)
	return &out, nil
}

// CreateLines inserts all lines of an order in a single batch.
func (r *postgresRepo) CreateLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(`
INSERT INTO order_items (order_id, product_id, product_name, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5)
`, orderID, line.ProductID, line.ProductName, line.PriceCents, line.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Printf("order repo: create lines order_id=%s count=%d error=%v", orderID, len(lines), err)
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Delete(ctx context.Context, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		r.logger.Printf("order repo: delete id=%s error=%v", orderID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderColumns+`WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, product_name, price_cents, quantity, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC, product_name ASC
`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.PriceCents, &l.Quantity, &l.CreatedAt); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, orderColumns+`WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

// UpdateStatus moves the order from one status to another. A concurrent change
// of status makes the update miss and reports ErrInvalidStatusTransition.
func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`
	cmd, err := r.pool.Exec(ctx, q, id, string(from), string(to))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, domain.ErrInvalidStatusTransition
		}
		r.logger.Printf("order repo: update status id=%s to=%s error=%v", id, to, err)
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrInvalidStatusTransition
	}
	r.logger.Printf("order repo: status id=%s from=%s to=%s", id, from, to)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) HasFarmOwner(ctx context.Context, orderID, ownerID string) (bool, error) {
	const q = `
SELECT EXISTS (
    SELECT 1
    FROM order_items oi
    JOIN products p ON p.id = oi.product_id
    JOIN farms f ON f.id = p.farm_id
    WHERE oi.order_id::text = $1 AND f.owner_id::text = $2
)
`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, orderID, ownerID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.SubtotalCents, &o.TaxCents, &o.ShippingCents, &o.TotalCents,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
