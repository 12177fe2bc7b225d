package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/core/service"
	"github.com/lqhuy/marketplace/internal/port"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// JWTGateway issues HS256 bearer tokens and resolves them back to users.
// Implements port.TokenIssuer and port.IdentityGateway.
type JWTGateway struct {
	secret []byte
	users  port.UserStore
}

func NewJWTGateway(secret string, users port.UserStore) *JWTGateway {
	return &JWTGateway{secret: []byte(secret), users: users}
}

func (g *JWTGateway) IssueTokens(userID string) (string, string, error) {
	access, err := g.sign(userID, accessTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := g.sign(userID, refreshTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}
	return access, refresh, nil
}

func (g *JWTGateway) sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(g.secret)
}

func (g *JWTGateway) ResolveIdentity(ctx context.Context, credential string) (*domain.User, error) {
	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, service.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, service.ErrUnauthenticated
	}

	user, err := g.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}
	return user, nil
}
