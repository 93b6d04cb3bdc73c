package auth

import (
	"context"

	"github.com/viewtube/backend/internal/models"
)

type identityKey struct{}

// WithIdentity stores the authenticated user on the context.
func WithIdentity(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFromContext returns the authenticated user attached by the session
// guard. The second return is false on unguarded requests.
func IdentityFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(identityKey{}).(models.User)
	return user, ok
}
