package port

import (
	"context"

	"github.com/lqhuy/marketplace/internal/core/domain"
)

type IdentityGateway interface {
	// ResolveIdentity maps a bearer credential to the authenticated user
	ResolveIdentity(ctx context.Context, credential string) (*domain.User, error)
}

type TokenIssuer interface {
	// IssueTokens mints an access/refresh token pair for a user
	IssueTokens(userID string) (access, refresh string, err error)
}
