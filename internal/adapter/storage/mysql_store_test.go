package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

// These tests need a real MySQL. They skip when the database is unreachable:
//
//	TEST_MYSQL_DSN=root:root@tcp(localhost:3306)/marketplace_test?parseTime=true&multiStatements=true go test ./internal/adapter/storage/
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/marketplace_test?parseTime=true&multiStatements=true"
	}
	db, err := Open(dsn)
	if err != nil {
		t.Skipf("mysql not available, skipping: %v", err)
	}
	if err := RunMigrations(db, "migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user row and registers cleanup of everything the
// tests hang off it.
func createTestUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, "test_"+id[:8], id[:8]+"@test.local", "x", domain.RoleUser, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("insert test user: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM basket_items WHERE basket_id IN (SELECT id FROM baskets WHERE user_id = ?)`, id)
		db.Exec(`DELETE FROM baskets WHERE user_id = ?`, id)
		db.Exec(`DELETE FROM products WHERE created_by = ?`, id)
		db.Exec(`DELETE FROM users WHERE id = ?`, id)
	})
	return id
}

func createTestProduct(t *testing.T, db *sql.DB, createdBy string, price float64, stock int) string {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO products (id, name, description, price, stock, category, image_url, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "test product", "a product used by storage tests", price, stock, "test", "", createdBy, now, now,
	)
	if err != nil {
		t.Fatalf("insert test product: %v", err)
	}
	return id
}

func TestBasketStore_GetOrCreateActiveBasket(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	ctx := context.Background()

	first, err := store.GetOrCreateActiveBasket(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreateActiveBasket failed: %v", err)
	}
	if first.Status != domain.BasketStatusActive {
		t.Errorf("expected active status, got %s", first.Status)
	}

	second, err := store.GetOrCreateActiveBasket(ctx, userID)
	if err != nil {
		t.Fatalf("second GetOrCreateActiveBasket failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same basket, got %s and %s", first.ID, second.ID)
	}
}

// The unique index over the generated active_user_id column resolves insert
// races: a second CreateBasket for the same user returns the existing basket
// instead of failing.
func TestBasketStore_CreateBasket_ActiveUnique(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	ctx := context.Background()

	first, err := store.CreateBasket(ctx, userID)
	if err != nil {
		t.Fatalf("CreateBasket failed: %v", err)
	}
	second, err := store.CreateBasket(ctx, userID)
	if err != nil {
		t.Fatalf("second CreateBasket failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected duplicate insert to resolve to existing basket %s, got %s", first.ID, second.ID)
	}
}

func TestBasketStore_LineItems(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	productID := createTestProduct(t, db, userID, 9.99, 10)
	store := NewMySQLBasketStore(db)
	ctx := context.Background()

	basket, err := store.CreateBasket(ctx, userID)
	if err != nil {
		t.Fatalf("CreateBasket failed: %v", err)
	}

	item, created, err := store.UpsertLineItem(ctx, basket.ID, productID, 3)
	if err != nil {
		t.Fatalf("UpsertLineItem failed: %v", err)
	}
	if !created || item.Quantity != 3 {
		t.Errorf("expected fresh item with quantity 3, got created=%v quantity=%d", created, item.Quantity)
	}

	item, created, err = store.UpsertLineItem(ctx, basket.ID, productID, 2)
	if err != nil {
		t.Fatalf("second UpsertLineItem failed: %v", err)
	}
	if created || item.Quantity != 5 {
		t.Errorf("expected merged item with quantity 5, got created=%v quantity=%d", created, item.Quantity)
	}

	item, err = store.SetLineItemQuantity(ctx, basket.ID, productID, 4)
	if err != nil {
		t.Fatalf("SetLineItemQuantity failed: %v", err)
	}
	if item == nil || item.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %+v", item)
	}

	// Quantity zero deletes the row.
	if _, err := store.SetLineItemQuantity(ctx, basket.ID, productID, 0); err != nil {
		t.Fatalf("SetLineItemQuantity to zero failed: %v", err)
	}
	got, err := store.GetLineItem(ctx, basket.ID, productID)
	if err != nil {
		t.Fatalf("GetLineItem failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected item deleted, got %+v", got)
	}

	// Absent items report nil / false rather than an error.
	item, err = store.SetLineItemQuantity(ctx, basket.ID, productID, 1)
	if err != nil || item != nil {
		t.Errorf("expected nil for absent item, got %+v, %v", item, err)
	}
	removed, err := store.RemoveLineItem(ctx, basket.ID, productID)
	if err != nil || removed {
		t.Errorf("expected no-op remove, got removed=%v err=%v", removed, err)
	}
}

func TestBasketStore_MarkCompletedAndHistory(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	ctx := context.Background()

	if err := store.MarkCompleted(ctx, uuid.New().String()); !errors.Is(err, port.ErrBasketConflict) {
		t.Errorf("expected ErrBasketConflict for unknown basket, got %v", err)
	}

	first, err := store.CreateBasket(ctx, userID)
	if err != nil {
		t.Fatalf("CreateBasket failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, first.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	// Completing twice is a conflict, not a silent success: the status guard
	// is what keeps a racing checkout from committing a second time.
	if err := store.MarkCompleted(ctx, first.ID); !errors.Is(err, port.ErrBasketConflict) {
		t.Errorf("expected ErrBasketConflict on repeat completion, got %v", err)
	}

	// With the first basket completed a new active one can be created.
	second, err := store.CreateBasket(ctx, userID)
	if err != nil {
		t.Fatalf("CreateBasket after completion failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a fresh basket after completion")
	}

	completed, err := store.ListBasketsByUser(ctx, userID, domain.BasketStatusCompleted)
	if err != nil {
		t.Fatalf("ListBasketsByUser failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != first.ID {
		t.Errorf("expected exactly the completed basket, got %+v", completed)
	}

	all, err := store.ListBasketsByUser(ctx, userID, "")
	if err != nil {
		t.Fatalf("ListBasketsByUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 baskets, got %d", len(all))
	}
}

// The duplicate-key recovery in CreateBasket must see a basket committed
// after the surrounding transaction's snapshot was taken. A plain SELECT
// re-read would return nothing here and surface a storage error.
func TestBasketStore_CreateBasket_RecoveryInsideTx(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	tx := NewTxManager(db)
	ctx := context.Background()

	outsideID := uuid.New().String()
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		// Pin the snapshot before the competing basket exists.
		basket, err := store.GetActiveBasket(ctx, userID)
		if err != nil {
			return err
		}
		if basket != nil {
			t.Fatalf("expected no basket yet, got %s", basket.ID)
		}

		// A concurrent request commits its basket on another connection.
		now := time.Now().UTC()
		if _, err := db.Exec(`
			INSERT INTO baskets (id, user_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			outsideID, userID, domain.BasketStatusActive, now, now,
		); err != nil {
			t.Fatalf("outside insert failed: %v", err)
		}

		created, err := store.CreateBasket(ctx, userID)
		if err != nil {
			return err
		}
		if created.ID != outsideID {
			t.Errorf("expected recovery to return the committed basket %s, got %s", outsideID, created.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}
}

func TestProductStore_DecrementStock(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	productID := createTestProduct(t, db, userID, 5, 5)
	store := NewMySQLProductStore(db)
	ctx := context.Background()

	if err := store.DecrementStock(ctx, productID, 3); err != nil {
		t.Fatalf("DecrementStock failed: %v", err)
	}

	// 2 left; decrementing 3 must fail without touching the row.
	if err := store.DecrementStock(ctx, productID, 3); !errors.Is(err, port.ErrStockConflict) {
		t.Errorf("expected ErrStockConflict, got %v", err)
	}

	product, err := store.GetProduct(ctx, productID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if product.Stock != 2 {
		t.Errorf("expected stock 2, got %d", product.Stock)
	}
}

func TestProductStore_UpdateAndDelete(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	productID := createTestProduct(t, db, userID, 5, 5)
	store := NewMySQLProductStore(db)
	ctx := context.Background()

	newPrice := 7.5
	updated, err := store.UpdateProduct(ctx, productID, domain.ProductUpdate{Price: &newPrice})
	if err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if updated.Price != 7.5 {
		t.Errorf("expected price 7.5, got %v", updated.Price)
	}
	if updated.Name != "test product" || updated.Stock != 5 {
		t.Errorf("expected untouched fields preserved, got %+v", updated)
	}

	missing, err := store.UpdateProduct(ctx, uuid.New().String(), domain.ProductUpdate{Price: &newPrice})
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown product, got %+v, %v", missing, err)
	}

	deleted, err := store.DeleteProduct(ctx, productID)
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got deleted=%v err=%v", deleted, err)
	}
	deleted, err = store.DeleteProduct(ctx, productID)
	if err != nil || deleted {
		t.Errorf("expected second delete to report false, got deleted=%v err=%v", deleted, err)
	}
}

func TestUserStore(t *testing.T) {
	db := getTestDB(t)
	store := NewMySQLUserStore(db)
	ctx := context.Background()

	id := uuid.New().String()
	user := domain.User{
		ID:           id,
		Username:     "test_" + id[:8],
		Email:        id[:8] + "@test.local",
		PasswordHash: "hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = ?`, id) })

	byID, err := store.GetUserByID(ctx, id)
	if err != nil || byID == nil || byID.Role != domain.RoleAdmin {
		t.Fatalf("GetUserByID: got %+v, %v", byID, err)
	}
	byName, err := store.GetUserByUsername(ctx, user.Username)
	if err != nil || byName == nil || byName.ID != id {
		t.Fatalf("GetUserByUsername: got %+v, %v", byName, err)
	}
	byEmail, err := store.GetUserByEmail(ctx, user.Email)
	if err != nil || byEmail == nil || byEmail.ID != id {
		t.Fatalf("GetUserByEmail: got %+v, %v", byEmail, err)
	}

	none, err := store.GetUserByID(ctx, uuid.New().String())
	if err != nil || none != nil {
		t.Errorf("expected nil for unknown user, got %+v, %v", none, err)
	}
}

func TestTxManager_RollsBack(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	tx := NewTxManager(db)
	ctx := context.Background()

	sentinel := errors.New("abort")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := store.CreateBasket(ctx, userID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	basket, err := store.GetActiveBasket(ctx, userID)
	if err != nil {
		t.Fatalf("GetActiveBasket failed: %v", err)
	}
	if basket != nil {
		t.Errorf("expected insert rolled back, found basket %s", basket.ID)
	}
}

func TestTxManager_JoinsAmbientTx(t *testing.T) {
	db := getTestDB(t)
	userID := createTestUser(t, db)
	store := NewMySQLBasketStore(db)
	tx := NewTxManager(db)
	ctx := context.Background()

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		// A nested call must reuse the outer transaction, not deadlock on a
		// second connection.
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			_, err := store.CreateBasket(ctx, userID)
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested WithinTx failed: %v", err)
	}

	basket, err := store.GetActiveBasket(ctx, userID)
	if err != nil || basket == nil {
		t.Fatalf("expected committed basket, got %+v, %v", basket, err)
	}
}
