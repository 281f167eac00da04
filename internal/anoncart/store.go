package anoncart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"feathermart/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched anonymous cart survives.
const DefaultTTL = 30 * 24 * time.Hour

// Store persists the device-resident cart of an anonymous buyer.
type Store interface {
	Load(ctx context.Context, anonymousID string) ([]domain.CartLine, error)
	Save(ctx context.Context, anonymousID string, lines []domain.CartLine) error
	Remove(ctx context.Context, anonymousID string) error
}

type slot struct {
	Lines     []domain.CartLine `json:"lines"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Load returns the stored lines. A missing slot is an empty cart.
func (s *RedisStore) Load(ctx context.Context, anonymousID string) ([]domain.CartLine, error) {
	data, err := s.client.Get(ctx, slotKey(anonymousID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var stored slot
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal anonymous cart failed: %w", err)
	}
	if stored.Lines == nil {
		stored.Lines = []domain.CartLine{}
	}
	return stored.Lines, nil
}

// Save overwrites the slot and refreshes its expiry. Saving no lines removes it.
func (s *RedisStore) Save(ctx context.Context, anonymousID string, lines []domain.CartLine) error {
	if len(lines) == 0 {
		return s.Remove(ctx, anonymousID)
	}
	data, err := json.Marshal(slot{Lines: lines, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal anonymous cart failed: %w", err)
	}
	if err := s.client.Set(ctx, slotKey(anonymousID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, anonymousID string) error {
	if err := s.client.Del(ctx, slotKey(anonymousID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func slotKey(anonymousID string) string {
	return fmt.Sprintf("anoncart:%s", anonymousID)
}
