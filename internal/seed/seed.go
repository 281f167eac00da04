package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Demo account credentials created by Apply.
const (
	FarmerEmail    = "farmer@feathermart.local"
	BuyerEmail     = "buyer@feathermart.local"
	DemoPassword   = "Feathers123"
	demoFarmName   = "Sunny Side Coop"
	demoFarmRegion = "Hudson Valley, NY"
)

type productSeed struct {
	Name          string
	Description   string
	Category      string
	PriceCents    int64
	DiscountCents *int64
	Stock         int
}

var categories = []struct{ Key, Name string }{
	{"eggs", "Eggs"},
	{"chicks", "Chicks"},
	{"layers", "Laying Hens"},
	{"feed", "Feed & Supplies"},
}

func cents(v int64) *int64 { return &v }

var products = []productSeed{
	{Name: "Brown Eggs (dozen)", Description: "Free range, collected daily", Category: "eggs", PriceCents: 650, Stock: 40},
	{Name: "Duck Eggs (half dozen)", Description: "Rich yolks for baking", Category: "eggs", PriceCents: 725, DiscountCents: cents(600), Stock: 12},
	{Name: "Rhode Island Red Chicks", Description: "Day-old, straight run", Category: "chicks", PriceCents: 450, Stock: 60},
	{Name: "Buff Orpington Pullet", Description: "16 weeks, ready to lay soon", Category: "layers", PriceCents: 2800, Stock: 8},
	{Name: "Layer Pellets 25lb", Description: "16% protein complete feed", Category: "feed", PriceCents: 2199, Stock: 20},
}

// Apply inserts demo accounts, a farm and its catalog for manual testing.
// It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	farmerID, err := ensureUser(ctx, pool, FarmerEmail, "Demo Farmer", "farmer", string(hash))
	if err != nil {
		return fmt.Errorf("ensure farmer: %w", err)
	}
	if _, err := ensureUser(ctx, pool, BuyerEmail, "Demo Buyer", "buyer", string(hash)); err != nil {
		return fmt.Errorf("ensure buyer: %w", err)
	}

	for _, c := range categories {
		if err := upsertCategory(ctx, pool, c.Key, c.Name); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}

	farmID, err := ensureFarm(ctx, pool, farmerID, demoFarmName, demoFarmRegion)
	if err != nil {
		return fmt.Errorf("ensure farm: %w", err)
	}
	for _, p := range products {
		if err := upsertProduct(ctx, pool, farmID, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, email, name, role, hash string) (string, error) {
	const q = `
INSERT INTO users (email, password_hash, full_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, email, hash, name, role).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertCategory(ctx context.Context, pool *pgxpool.Pool, key, name string) error {
	const q = `
INSERT INTO categories (key, name, slug)
VALUES ($1, $2, $1)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
`
	_, err := pool.Exec(ctx, q, key, name)
	return err
}

func ensureFarm(ctx context.Context, pool *pgxpool.Pool, ownerID, name, location string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `SELECT id::text FROM farms WHERE owner_id = $1 AND name = $2`, ownerID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	const q = `
INSERT INTO farms (owner_id, name, description, location)
VALUES ($1, $2, 'Demo farm with a small flock', $3)
RETURNING id::text
`
	if err := pool.QueryRow(ctx, q, ownerID, name, location).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, farmID string, p productSeed) error {
	const q = `
INSERT INTO products (farm_id, name, description, category, price_cents, discount_price_cents, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (farm_id, name) DO UPDATE
SET description = EXCLUDED.description,
    category = EXCLUDED.category,
    price_cents = EXCLUDED.price_cents,
    discount_price_cents = EXCLUDED.discount_price_cents,
    stock = EXCLUDED.stock,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q, farmID, p.Name, p.Description, p.Category, p.PriceCents, p.DiscountCents, p.Stock)
	return err
}
