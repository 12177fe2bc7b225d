package port

import (
	"context"
	"errors"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type BasketCache interface {
	// GetBasketView returns the cached serialized basket for a user, failing
	// with ErrCacheMiss when absent
	GetBasketView(ctx context.Context, userID string) (*domain.BasketView, error)

	// SetBasketView caches the serialized basket for a user
	SetBasketView(ctx context.Context, userID string, view *domain.BasketView) error

	// Invalidate drops the cached basket for a user
	Invalidate(ctx context.Context, userID string) error
}
