package port

import (
	"context"
	"errors"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

// ErrStockConflict is returned by DecrementStock when the decrement would
// drive stock negative.
var ErrStockConflict = errors.New("stock conflict")

type InventoryGateway interface {
	// GetProduct returns current price and stock, or nil if not found
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// GetProductForUpdate is GetProduct with the row locked for the duration
	// of the surrounding transaction
	GetProductForUpdate(ctx context.Context, productID string) (*domain.Product, error)

	// DecrementStock decreases product stock, failing with ErrStockConflict
	// if the resulting stock would go negative; joins an ambient transaction
	DecrementStock(ctx context.Context, productID string, amount int) error
}
