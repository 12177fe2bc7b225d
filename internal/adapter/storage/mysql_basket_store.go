package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

// MySQL error 1062: duplicate entry for a unique key.
const mysqlErrDuplicateEntry = 1062

// MySQLBasketStore persists baskets and line items. At most one active
// basket per user is enforced by a unique index over a generated column
// (see migration 000002).
type MySQLBasketStore struct {
	db *sql.DB
}

func NewMySQLBasketStore(db *sql.DB) *MySQLBasketStore {
	return &MySQLBasketStore{db: db}
}

func (s *MySQLBasketStore) GetActiveBasket(ctx context.Context, userID string) (*domain.Basket, error) {
	return s.scanBasket(conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM baskets WHERE user_id = ? AND status = ?`,
		userID, domain.BasketStatusActive,
	))
}

func (s *MySQLBasketStore) CreateBasket(ctx context.Context, userID string) (*domain.Basket, error) {
	now := time.Now().UTC()
	basket := domain.Basket{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    domain.BasketStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO baskets (id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		basket.ID, basket.UserID, basket.Status, basket.CreatedAt, basket.UpdatedAt,
	)
	if err != nil {
		// A concurrent request won the insert race on the unique active
		// index; re-read instead of creating a duplicate. The re-read must be
		// a locking read: inside a transaction a plain SELECT would reuse a
		// snapshot taken before the winner committed and see nothing.
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			existing, lookupErr := s.getActiveBasketForUpdate(ctx, userID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("insert basket: %w", err)
	}
	return &basket, nil
}

func (s *MySQLBasketStore) getActiveBasketForUpdate(ctx context.Context, userID string) (*domain.Basket, error) {
	return s.scanBasket(conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM baskets WHERE user_id = ? AND status = ? FOR UPDATE`,
		userID, domain.BasketStatusActive,
	))
}

func (s *MySQLBasketStore) GetOrCreateActiveBasket(ctx context.Context, userID string) (*domain.Basket, error) {
	basket, err := s.GetActiveBasket(ctx, userID)
	if err != nil {
		return nil, err
	}
	if basket != nil {
		return basket, nil
	}
	return s.CreateBasket(ctx, userID)
}

func (s *MySQLBasketStore) GetBasketByID(ctx context.Context, basketID string) (*domain.Basket, error) {
	return s.scanBasket(conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM baskets WHERE id = ?`, basketID,
	))
}

func (s *MySQLBasketStore) ListLineItems(ctx context.Context, basketID string) ([]domain.LineItem, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, `
		SELECT id, basket_id, product_id, quantity, added_at
		FROM basket_items WHERE basket_id = ?
		ORDER BY added_at, id`, basketID,
	)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.ID, &item.BasketID, &item.ProductID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *MySQLBasketStore) GetLineItem(ctx context.Context, basketID, productID string) (*domain.LineItem, error) {
	var item domain.LineItem
	err := conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, basket_id, product_id, quantity, added_at
		FROM basket_items WHERE basket_id = ? AND product_id = ?`,
		basketID, productID,
	).Scan(&item.ID, &item.BasketID, &item.ProductID, &item.Quantity, &item.AddedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query line item: %w", err)
	}
	return &item, nil
}

func (s *MySQLBasketStore) UpsertLineItem(ctx context.Context, basketID, productID string, delta int) (*domain.LineItem, bool, error) {
	result, err := conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO basket_items (id, basket_id, product_id, quantity, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		uuid.New().String(), basketID, productID, delta, time.Now().UTC(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert line item: %w", err)
	}

	// MySQL reports 1 affected row for an insert, 2 for a duplicate-key
	// update.
	rows, _ := result.RowsAffected()
	created := rows == 1

	item, err := s.GetLineItem(ctx, basketID, productID)
	if err != nil {
		return nil, false, err
	}
	return item, created, nil
}

func (s *MySQLBasketStore) SetLineItemQuantity(ctx context.Context, basketID, productID string, quantity int) (*domain.LineItem, error) {
	item, err := s.GetLineItem(ctx, basketID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	if quantity <= 0 {
		if _, err := conn(ctx, s.db).ExecContext(ctx,
			`DELETE FROM basket_items WHERE id = ?`, item.ID); err != nil {
			return nil, fmt.Errorf("delete line item: %w", err)
		}
		return item, nil
	}

	if _, err := conn(ctx, s.db).ExecContext(ctx,
		`UPDATE basket_items SET quantity = ? WHERE id = ?`, quantity, item.ID); err != nil {
		return nil, fmt.Errorf("update line item: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

func (s *MySQLBasketStore) RemoveLineItem(ctx context.Context, basketID, productID string) (bool, error) {
	result, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM basket_items WHERE basket_id = ? AND product_id = ?`,
		basketID, productID,
	)
	if err != nil {
		return false, fmt.Errorf("delete line item: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *MySQLBasketStore) ClearLineItems(ctx context.Context, basketID string) error {
	if _, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM basket_items WHERE basket_id = ?`, basketID); err != nil {
		return fmt.Errorf("clear line items: %w", err)
	}
	return nil
}

func (s *MySQLBasketStore) MarkCompleted(ctx context.Context, basketID string) error {
	// The status guard makes completion an optimistic lock: if a concurrent
	// checkout already completed this basket, the UPDATE matches nothing and
	// the caller must roll back its own effects.
	result, err := conn(ctx, s.db).ExecContext(ctx, `
		UPDATE baskets SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		domain.BasketStatusCompleted, time.Now().UTC(), basketID, domain.BasketStatusActive,
	)
	if err != nil {
		return fmt.Errorf("complete basket: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrBasketConflict
	}
	return nil
}

func (s *MySQLBasketStore) ListBasketsByUser(ctx context.Context, userID string, status domain.BasketStatus) ([]domain.Basket, error) {
	query := `
		SELECT id, user_id, status, created_at, updated_at
		FROM baskets WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query baskets: %w", err)
	}
	defer rows.Close()

	var baskets []domain.Basket
	for rows.Next() {
		var basket domain.Basket
		if err := rows.Scan(&basket.ID, &basket.UserID, &basket.Status, &basket.CreatedAt, &basket.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan basket: %w", err)
		}
		baskets = append(baskets, basket)
	}
	return baskets, rows.Err()
}

func (s *MySQLBasketStore) scanBasket(row *sql.Row) (*domain.Basket, error) {
	var basket domain.Basket
	err := row.Scan(&basket.ID, &basket.UserID, &basket.Status, &basket.CreatedAt, &basket.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query basket: %w", err)
	}
	return &basket, nil
}
