package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

type ctxKey int

const userContextKey ctxKey = iota

// RequireAuth resolves the bearer credential to a user and stores it in the
// request context. Requests without a valid credential never reach the
// wrapped handler.
func RequireAuth(identity port.IdentityGateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := identity.ResolveIdentity(r.Context(), token)
			if err != nil {
				respondServiceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}
