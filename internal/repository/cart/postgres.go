package cart

import (
	"context"
	"errors"

	"feathermart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertLine = `
INSERT INTO cart_items (user_id, product_id, quantity)
SELECT $1, p.id, $3
FROM products p
WHERE p.id::text = $2
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity,
    updated_at = now()
`

// mergeLine folds a guest line in, clamping the sum to the line cap ($4).
const mergeLine = `
INSERT INTO cart_items (user_id, product_id, quantity)
SELECT $1, p.id, LEAST($3::int, $4::int)
FROM products p
WHERE p.id::text = $2
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $4::int),
    updated_at = now()
`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// ListByUser returns the user's lines joined with live product and farm data.
func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartLine, error) {
	const q = `
SELECT ci.id::text, ci.product_id::text, ci.quantity, ci.created_at,
       p.name, p.price_cents, p.discount_price_cents, p.stock, p.images, f.name
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
JOIN farms f ON f.id = p.farm_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC, ci.id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			line     domain.CartLine
			product  domain.Product
			discount *int64
		)
		if err := rows.Scan(
			&line.ID,
			&line.ProductID,
			&line.Quantity,
			&line.CreatedAt,
			&product.Name,
			&product.PriceCents,
			&discount,
			&product.Stock,
			&product.Images,
			&product.FarmName,
		); err != nil {
			return nil, err
		}
		product.DiscountPriceCents = discount
		line.Product = product.Snapshot()
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// AddOrIncrement inserts a line or adds quantity to the existing line for the product.
func (r *postgresRepo) AddOrIncrement(ctx context.Context, userID, productID string, quantity int) error {
	if !domain.ValidLineQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}
	cmd, err := r.pool.Exec(ctx, upsertLine, userID, productID, quantity)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *postgresRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	if !domain.ValidLineQuantity(quantity) {
		return domain.ErrInvalidQuantity
	}
	cmd, err := r.pool.Exec(ctx, `
UPDATE cart_items
SET quantity = $3, updated_at = now()
WHERE id::text = $2 AND user_id = $1
`, userID, lineID, quantity)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a line; a missing line is not an error.
func (r *postgresRepo) Delete(ctx context.Context, userID, lineID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id::text = $2 AND user_id = $1`, userID, lineID)
	return err
}

func (r *postgresRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

// MergeLines folds lines into the user's cart in one transaction. Lines whose
// product no longer exists are skipped.
func (r *postgresRepo) MergeLines(ctx context.Context, userID string, lines []MergeLine) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		batch.Queue(mergeLine, userID, line.ProductID, line.Quantity, domain.MaxLineQuantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapWriteError(err)
	}

	return tx.Commit(ctx)
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return domain.ErrProductNotFound
		case "23514", "22003":
			return domain.ErrInvalidQuantity
		}
	}
	return err
}
