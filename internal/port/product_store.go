package port

import (
	"context"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

type ProductQuery struct {
	Page     int
	PerPage  int
	Category string
	Search   string
}

type ProductStore interface {
	CreateProduct(ctx context.Context, product domain.Product) error

	// GetProduct returns the product, or nil if not found
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// ListProducts returns one page of products newest first plus the total
	// count matching the filters
	ListProducts(ctx context.Context, query ProductQuery) ([]domain.Product, int, error)

	// UpdateProduct applies the non-nil fields, returning the updated product
	// or nil if not found
	UpdateProduct(ctx context.Context, productID string, update domain.ProductUpdate) (*domain.Product, error)

	// DeleteProduct deletes, reporting whether a product was deleted
	DeleteProduct(ctx context.Context, productID string) (bool, error)

	// Categories returns the distinct non-empty product categories
	Categories(ctx context.Context) ([]string, error)
}
