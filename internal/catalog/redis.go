package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "catalog:"

// RedisStore persists catalog prices in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a store. An empty prefix falls back to "catalog:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key() string {
	return s.prefix + "products"
}

// AddProduct stores the unit price of p.
func (s *RedisStore) AddProduct(ctx context.Context, p Product, priceCents int64) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("catalog: redis store not configured")
	}
	if priceCents < 0 {
		return fmt.Errorf("%w: %s costs %d", ErrInvalidPrice, p.Name, priceCents)
	}
	return s.client.HSet(ctx, s.key(), p.key(), priceCents).Err()
}

// RemoveProduct deletes p from the store. Missing products are ignored.
func (s *RedisStore) RemoveProduct(ctx context.Context, p Product) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("catalog: redis store not configured")
	}
	return s.client.HDel(ctx, s.key(), p.key()).Err()
}

// Snapshot loads every stored product into a Memory catalog.
func (s *RedisStore) Snapshot(ctx context.Context) (*Memory, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("catalog: redis store not configured")
	}
	fields, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("catalog: load products: %w", err)
	}
	mem := NewMemory()
	for field, raw := range fields {
		p, err := parseKey(field)
		if err != nil {
			return nil, err
		}
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("catalog: price for %s: %w", p.Name, err)
		}
		if err := mem.AddProduct(p, price); err != nil {
			return nil, err
		}
	}
	return mem, nil
}
