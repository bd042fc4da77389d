package auth

import (
	"context"

	"github.com/go-social-auth/internal/domain"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*domain.User)
	return u, ok && u != nil
}
