package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

const basketKeyPrefix = "basket:"

// RedisBasketCache keeps the serialized basket view per user. Entries are
// short-lived and rewritten after every committed mutation, so staleness is
// bounded to catalog-side price edits within the TTL.
type RedisBasketCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBasketCache(client *redis.Client, ttl time.Duration) *RedisBasketCache {
	return &RedisBasketCache{client: client, ttl: ttl}
}

func (c *RedisBasketCache) GetBasketView(ctx context.Context, userID string) (*domain.BasketView, error) {
	data, err := c.client.Get(ctx, basketKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var view domain.BasketView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("decode cached basket: %w", err)
	}
	return &view, nil
}

func (c *RedisBasketCache) SetBasketView(ctx context.Context, userID string, view *domain.BasketView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode basket: %w", err)
	}
	return c.client.Set(ctx, basketKeyPrefix+userID, data, c.ttl).Err()
}

func (c *RedisBasketCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, basketKeyPrefix+userID).Err()
}
