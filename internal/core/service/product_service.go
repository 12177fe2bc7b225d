package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

const maxPerPage = 100

type ProductService struct {
	products port.ProductStore
}

func NewProductService(products port.ProductStore) *ProductService {
	return &ProductService{products: products}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	ImageURL    string
}

type ProductPage struct {
	Products []domain.ProductView `json:"products"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PerPage  int                  `json:"per_page"`
	Pages    int                  `json:"pages"`
	HasNext  bool                 `json:"has_next"`
	HasPrev  bool                 `json:"has_prev"`
}

// CreateProduct adds a catalog entry. Admin only.
func (s *ProductService) CreateProduct(ctx context.Context, actor *domain.User, in CreateProductInput) (*domain.ProductView, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	description := strings.TrimSpace(in.Description)
	if len(name) < 3 {
		return nil, invalidInput("product name must be at least 3 characters")
	}
	if len(description) < 10 {
		return nil, invalidInput("product description must be at least 10 characters")
	}
	if in.Price < 0 {
		return nil, invalidInput("price must be a positive number")
	}
	if in.Stock < 0 {
		return nil, invalidInput("stock must be a non-negative number")
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	view := product.View()
	return &view, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*domain.ProductView, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	view := product.View()
	return &view, nil
}

// ListProducts pages through the catalog newest first, optionally filtered
// by category and a name/description search term.
func (s *ProductService) ListProducts(ctx context.Context, page, perPage int, category, search string) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	products, total, err := s.products.ListProducts(ctx, port.ProductQuery{
		Page:     page,
		PerPage:  perPage,
		Category: category,
		Search:   search,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	views := make([]domain.ProductView, 0, len(products))
	for i := range products {
		views = append(views, products[i].View())
	}

	pages := (total + perPage - 1) / perPage
	return &ProductPage{
		Products: views,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		Pages:    pages,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}, nil
}

// UpdateProduct applies the non-nil fields of the update. Admin only.
func (s *ProductService) UpdateProduct(ctx context.Context, actor *domain.User, productID string, update domain.ProductUpdate) (*domain.ProductView, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if update.Price != nil && *update.Price < 0 {
		return nil, invalidInput("price must be a positive number")
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, invalidInput("stock must be a non-negative number")
	}

	product, err := s.products.UpdateProduct(ctx, productID, update)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	view := product.View()
	return &view, nil
}

// DeleteProduct removes a catalog entry. Admin only.
func (s *ProductService) DeleteProduct(ctx context.Context, actor *domain.User, productID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	deleted, err := s.products.DeleteProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return ErrProductNotFound
	}
	return nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
