package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"feathermart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectColumns = `
SELECT p.id::text, p.farm_id::text, f.name, p.name, p.description, p.category, p.price_cents,
       p.discount_price_cents, p.stock, p.is_available, p.images, p.created_at, p.updated_at
FROM products p
JOIN farms f ON f.id = p.farm_id
`

const effectivePrice = `CASE WHEN p.discount_price_cents IS NOT NULL AND p.discount_price_cents > 0 AND p.discount_price_cents < p.price_cents THEN p.discount_price_cents ELSE p.price_cents END`

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

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.FarmID, &p.FarmName, &p.Name, &p.Description, &p.Category, &p.PriceCents,
		&p.DiscountPriceCents, &p.Stock, &p.Available, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectColumns+`WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, selectColumns+`WHERE p.id::text = ANY($1)`, ids)
	if err != nil {
		r.logger.Printf("product repo: get many count=%d error=%v", len(ids), err)
		return nil, err
	}
	list, err := collect(rows)
	if err != nil {
		r.logger.Printf("product repo: get many rows error=%v", err)
		return nil, err
	}
	for _, p := range list {
		result[p.ID] = p
	}
	return result, nil
}

func (r *postgresRepo) Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	filter = filter.Normalized()

	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds, "p.is_available")
	if text := strings.TrimSpace(filter.Text); text != "" {
		ph := arg("%" + text + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", ph, ph))
	}
	if filter.Category != "" {
		conds = append(conds, "p.category = "+arg(filter.Category))
	}
	if filter.FarmID != "" {
		conds = append(conds, "p.farm_id::text = "+arg(filter.FarmID))
	}
	if filter.MinPriceCents != nil {
		conds = append(conds, effectivePrice+" >= "+arg(*filter.MinPriceCents))
	}
	if filter.MaxPriceCents != nil {
		conds = append(conds, effectivePrice+" <= "+arg(*filter.MaxPriceCents))
	}
	if filter.InStockOnly {
		conds = append(conds, "p.stock > 0")
	}
	where := "WHERE " + strings.Join(conds, " AND ") + "\n"

	var total int
	countQ := `SELECT count(*) FROM products p JOIN farms f ON f.id = p.farm_id ` + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		r.logger.Printf("product repo: search count error=%v", err)
		return nil, 0, err
	}

	var order string
	switch filter.Sort {
	case domain.SortPriceAsc:
		order = effectivePrice + " ASC, p.name ASC"
	case domain.SortPriceDesc:
		order = effectivePrice + " DESC, p.name ASC"
	case domain.SortName:
		order = "p.name ASC, p.id ASC"
	default:
		order = "p.created_at DESC, p.id ASC"
	}
	q := selectColumns + where + "ORDER BY " + order + " LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: search error=%v", err)
		return nil, 0, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Printf("product repo: search rows error=%v", err)
		return nil, 0, err
	}
	r.logger.Printf("product repo: search text=%q category=%s count=%d total=%d", filter.Text, filter.Category, len(result), total)
	return result, total, nil
}

func (r *postgresRepo) ListByFarm(ctx context.Context, farmID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectColumns+`WHERE p.farm_id = $1 ORDER BY p.created_at DESC`, farmID)
	if err != nil {
		r.logger.Printf("product repo: list farm_id=%s error=%v", farmID, err)
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Printf("product repo: list rows farm_id=%s error=%v", farmID, err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Create(ctx context.Context, product domain.Product) (*domain.Product, error) {
	images, err := encodeImages(product.Images)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO products (farm_id, name, description, category, price_cents, discount_price_cents, stock, is_available, images)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
RETURNING id::text
`
	var id string
	err = r.pool.QueryRow(ctx, q, product.FarmID, product.Name, product.Description, product.Category,
		product.PriceCents, product.DiscountPriceCents, product.Stock, product.Available, images).Scan(&id)
	if err != nil {
		r.logger.Printf("product repo: create farm_id=%s name=%s error=%v", product.FarmID, product.Name, err)
		return nil, mapWriteError(err)
	}
	r.logger.Printf("product repo: created id=%s farm_id=%s", id, product.FarmID)
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, product domain.Product) (*domain.Product, error) {
	images, err := encodeImages(product.Images)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE products
SET name = $2, description = $3, category = $4, price_cents = $5, discount_price_cents = $6,
    stock = $7, is_available = $8, images = $9::jsonb, updated_at = now()
WHERE id = $1
`
	tag, err := r.pool.Exec(ctx, q, product.ID, product.Name, product.Description, product.Category,
		product.PriceCents, product.DiscountPriceCents, product.Stock, product.Available, images)
	if err != nil {
		r.logger.Printf("product repo: update id=%s error=%v", product.ID, err)
		return nil, mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, product.ID)
}

// Upsert inserts or updates a product keyed by (farm_id, name).
func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	images, err := encodeImages(product.Images)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO products (farm_id, name, description, category, price_cents, discount_price_cents, stock, is_available, images)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
ON CONFLICT (farm_id, name) DO UPDATE SET
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    price_cents = EXCLUDED.price_cents,
    discount_price_cents = EXCLUDED.discount_price_cents,
    stock = EXCLUDED.stock,
    is_available = EXCLUDED.is_available,
    images = EXCLUDED.images,
    updated_at = now()
RETURNING id::text
`
	var id string
	err = r.pool.QueryRow(ctx, q, product.FarmID, product.Name, product.Description, product.Category,
		product.PriceCents, product.DiscountPriceCents, product.Stock, product.Available, images).Scan(&id)
	if err != nil {
		r.logger.Printf("product repo: upsert farm_id=%s name=%s error=%v", product.FarmID, product.Name, err)
		return nil, mapWriteError(err)
	}
	r.logger.Printf("product repo: upserted id=%s farm_id=%s name=%s", id, product.FarmID, product.Name)
	return r.GetByID(ctx, id)
}

// DecrementStock lowers stock by quantity unless that would go negative.
func (r *postgresRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	const q = `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`
	tag, err := r.pool.Exec(ctx, q, id, quantity)
	if err != nil {
		r.logger.Printf("product repo: decrement stock id=%s qty=%d error=%v", id, quantity, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.ErrAlreadyExists
		case "23503":
			return domain.ErrNotFound
		}
	}
	return err
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
