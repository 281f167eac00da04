package farm

import (
	"context"
	"errors"
	"io"
	"log"

	"feathermart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Farm, error) {
	const q = `
SELECT id::text, owner_id::text, name, description, location, created_at, updated_at
FROM farms
WHERE id::text = $1
`
	var f domain.Farm
	err := r.pool.QueryRow(ctx, q, id).Scan(&f.ID, &f.OwnerID, &f.Name, &f.Description, &f.Location, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("farm repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &f, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Farm, error) {
	const q = `
SELECT id::text, owner_id::text, name, description, location, created_at, updated_at
FROM farms
WHERE owner_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		r.logger.Printf("farm repo: list owner_id=%s error=%v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Farm
	for rows.Next() {
		var f domain.Farm
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Description, &f.Location, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, farm *domain.Farm) (*domain.Farm, error) {
	const q = `
INSERT INTO farms (owner_id, name, description, location)
VALUES ($1, $2, $3, $4)
RETURNING id::text, created_at, updated_at
`
	out := *farm
	err := r.pool.QueryRow(ctx, q, farm.OwnerID, farm.Name, farm.Description, farm.Location).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("farm repo: create owner_id=%s error=%v", farm.OwnerID, err)
		return nil, err
	}
	r.logger.Printf("farm repo: created id=%s owner_id=%s", out.ID, out.OwnerID)
	return &out, nil
}

func (r *postgresRepo) Update(ctx context.Context, farm *domain.Farm) (*domain.Farm, error) {
	const q = `
UPDATE farms
SET name = $2, description = $3, location = $4, updated_at = now()
WHERE id = $1
RETURNING owner_id::text, created_at, updated_at
`
	out := *farm
	err := r.pool.QueryRow(ctx, q, farm.ID, farm.Name, farm.Description, farm.Location).Scan(&out.OwnerID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("farm repo: update id=%s error=%v", farm.ID, err)
		return nil, err
	}
	return &out, nil
}
