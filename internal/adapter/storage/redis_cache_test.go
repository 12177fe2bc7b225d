package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

func getTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available, skipping: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBasketCache_RoundTrip(t *testing.T) {
	client := getTestRedis(t)
	cache := NewRedisBasketCache(client, time.Minute)
	ctx := context.Background()
	userID := uuid.New().String()
	t.Cleanup(func() { cache.Invalidate(ctx, userID) })

	view := &domain.BasketView{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: domain.BasketStatusActive,
		Items: []domain.LineItemView{{
			ID:       uuid.New().String(),
			Product:  domain.ProductView{ID: "p1", Name: "Widget", Price: 9.99, Stock: 5},
			Quantity: 2,
			Subtotal: 19.98,
		}},
		TotalItems: 1,
		TotalPrice: 19.98,
	}
	if err := cache.SetBasketView(ctx, userID, view); err != nil {
		t.Fatalf("SetBasketView failed: %v", err)
	}

	got, err := cache.GetBasketView(ctx, userID)
	if err != nil {
		t.Fatalf("GetBasketView failed: %v", err)
	}
	if got.ID != view.ID || got.TotalPrice != view.TotalPrice || len(got.Items) != 1 {
		t.Errorf("cached view does not match: %+v", got)
	}
	if got.Items[0].Product.Name != "Widget" {
		t.Errorf("expected product detail preserved, got %+v", got.Items[0])
	}
}

func TestRedisBasketCache_Miss(t *testing.T) {
	cache := NewRedisBasketCache(getTestRedis(t), time.Minute)

	_, err := cache.GetBasketView(context.Background(), uuid.New().String())
	if !errors.Is(err, port.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisBasketCache_Invalidate(t *testing.T) {
	cache := NewRedisBasketCache(getTestRedis(t), time.Minute)
	ctx := context.Background()
	userID := uuid.New().String()

	view := &domain.BasketView{ID: uuid.New().String(), UserID: userID}
	if err := cache.SetBasketView(ctx, userID, view); err != nil {
		t.Fatalf("SetBasketView failed: %v", err)
	}
	if err := cache.Invalidate(ctx, userID); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, err := cache.GetBasketView(ctx, userID); !errors.Is(err, port.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after invalidate, got %v", err)
	}
}

func TestRedisBasketCache_TTLExpires(t *testing.T) {
	cache := NewRedisBasketCache(getTestRedis(t), 100*time.Millisecond)
	ctx := context.Background()
	userID := uuid.New().String()

	if err := cache.SetBasketView(ctx, userID, &domain.BasketView{ID: "b1", UserID: userID}); err != nil {
		t.Fatalf("SetBasketView failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if _, err := cache.GetBasketView(ctx, userID); !errors.Is(err, port.ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after TTL, got %v", err)
	}
}
