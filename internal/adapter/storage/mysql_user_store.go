package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

type MySQLUserStore struct {
	db *sql.DB
}

func NewMySQLUserStore(db *sql.DB) *MySQLUserStore {
	return &MySQLUserStore{db: db}
}

const userColumns = `id, username, email, password_hash, role, created_at`

func (s *MySQLUserStore) CreateUser(ctx context.Context, user domain.User) error {
	_, err := conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MySQLUserStore) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *MySQLUserStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (s *MySQLUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
