package port

import (
	"context"
	"errors"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

// ErrBasketConflict is returned by MarkCompleted when the basket is missing or
// no longer active, meaning a concurrent checkout already completed it.
var ErrBasketConflict = errors.New("basket is not active")

type BasketStore interface {
	// GetActiveBasket returns the user's active basket, or nil if none exists
	GetActiveBasket(ctx context.Context, userID string) (*domain.Basket, error)

	// CreateBasket inserts a new active basket; on a concurrent duplicate it
	// resolves to the existing active basket instead of creating a second one
	CreateBasket(ctx context.Context, userID string) (*domain.Basket, error)

	// GetOrCreateActiveBasket returns the active basket, creating one if absent
	GetOrCreateActiveBasket(ctx context.Context, userID string) (*domain.Basket, error)

	// GetBasketByID returns a basket by ID, or nil if not found
	GetBasketByID(ctx context.Context, basketID string) (*domain.Basket, error)

	// ListLineItems returns a basket's line items in insertion order
	ListLineItems(ctx context.Context, basketID string) ([]domain.LineItem, error)

	// GetLineItem returns the (basket, product) line item, or nil if not found
	GetLineItem(ctx context.Context, basketID, productID string) (*domain.LineItem, error)

	// UpsertLineItem increments the existing line item's quantity by delta, or
	// inserts a new one; reports whether a new row was created
	UpsertLineItem(ctx context.Context, basketID, productID string, delta int) (*domain.LineItem, bool, error)

	// SetLineItemQuantity sets the absolute quantity, deleting the line item
	// when quantity <= 0; returns nil if no such item exists
	SetLineItemQuantity(ctx context.Context, basketID, productID string, quantity int) (*domain.LineItem, error)

	// RemoveLineItem deletes the line item, reporting whether one was deleted
	RemoveLineItem(ctx context.Context, basketID, productID string) (bool, error)

	// ClearLineItems deletes all line items of a basket
	ClearLineItems(ctx context.Context, basketID string) error

	// MarkCompleted transitions an active basket to completed; returns
	// ErrBasketConflict when the basket is missing or not active anymore
	MarkCompleted(ctx context.Context, basketID string) error

	// ListBasketsByUser returns the user's baskets newest first, optionally
	// filtered by status (empty status means all)
	ListBasketsByUser(ctx context.Context, userID string, status domain.BasketStatus) ([]domain.Basket, error)
}
