package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

// MySQLProductStore is both the catalog store and the inventory gateway:
// product rows carry the stock the basket engine validates against, and
// DecrementStock is callable inside the checkout transaction.
type MySQLProductStore struct {
	db *sql.DB
}

func NewMySQLProductStore(db *sql.DB) *MySQLProductStore {
	return &MySQLProductStore{db: db}
}

const productColumns = `id, name, description, price, stock, category, image_url, created_by, created_at, updated_at`

func (s *MySQLProductStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return scanProduct(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, productID,
	))
}

func (s *MySQLProductStore) GetProductForUpdate(ctx context.Context, productID string) (*domain.Product, error) {
	return scanProduct(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, productID,
	))
}

func (s *MySQLProductStore) DecrementStock(ctx context.Context, productID string, amount int) error {
	result, err := conn(ctx, s.db).ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?`,
		amount, time.Now().UTC(), productID, amount,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrStockConflict
	}
	return nil
}

func (s *MySQLProductStore) CreateProduct(ctx context.Context, product domain.Product) error {
	_, err := conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.Name, product.Description, product.Price, product.Stock,
		product.Category, product.ImageURL, product.CreatedBy, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *MySQLProductStore) ListProducts(ctx context.Context, query port.ProductQuery) ([]domain.Product, int, error) {
	var (
		conds []string
		args  []any
	)
	if query.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, query.Category)
	}
	if query.Search != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ?)")
		pattern := "%" + query.Search + "%"
		args = append(args, pattern, pattern)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	offset := (query.Page - 1) * query.PerPage
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+productColumns+` FROM products`+where+
			` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, query.PerPage, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.Category, &p.ImageURL, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (s *MySQLProductStore) UpdateProduct(ctx context.Context, productID string, update domain.ProductUpdate) (*domain.Product, error) {
	existing, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *update.Price)
	}
	if update.Stock != nil {
		sets = append(sets, "stock = ?")
		args = append(args, *update.Stock)
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *update.Category)
	}
	if update.ImageURL != nil {
		sets = append(sets, "image_url = ?")
		args = append(args, *update.ImageURL)
	}

	args = append(args, productID)
	if _, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return s.GetProduct(ctx, productID)
}

func (s *MySQLProductStore) DeleteProduct(ctx context.Context, productID string) (bool, error) {
	result, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM products WHERE id = ?`, productID)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *MySQLProductStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx,
		`SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func scanProduct(row *sql.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.Category, &p.ImageURL, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}
