package port

import (
	"context"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error

	// GetUserByID returns the user, or nil if not found
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// GetUserByUsername returns the user, or nil if not found
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetUserByEmail returns the user, or nil if not found
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
