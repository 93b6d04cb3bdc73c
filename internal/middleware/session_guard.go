package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
)

// AccessTokenCookie names the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// AccessVerifier validates an access token and returns its subject id.
type AccessVerifier interface {
	VerifyAccess(raw string) (string, error)
}

// GuardUserStore resolves the authenticated user by id.
type GuardUserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionGuard authenticates requests before they reach protected handlers.
// The credential is read from the accessToken cookie first, then from the
// Authorization header; the cookie wins when both are present.
type SessionGuard struct {
	Verifier AccessVerifier
	Users    GuardUserStore
}

// Wrap returns a handler that rejects unauthenticated requests with 401 and
// otherwise attaches the resolved identity to the request context.
func (g SessionGuard) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		token := extractToken(r)
		if token == "" {
			logger.Warn("missing access credential", "path", r.URL.Path)
			rejectUnauthorized(w, "missing access token")
			return
		}

		userID, err := g.Verifier.VerifyAccess(token)
		if err != nil {
			logger.Warn("invalid access credential", "path", r.URL.Path, "error", err)
			rejectUnauthorized(w, "invalid access token")
			return
		}

		user, err := g.Users.FindByID(ctx, userID)
		if err != nil {
			logger.Warn("access token subject not found", "userId", userID, "error", err)
			rejectUnauthorized(w, "invalid access token")
			return
		}

		ctx = auth.WithIdentity(ctx, user.PublicProfile())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WrapOptional attaches the identity when a valid credential is present but
// lets anonymous requests through. Handlers behind it must tolerate a missing
// identity.
func (g SessionGuard) WrapOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := g.Verifier.VerifyAccess(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := g.Users.FindByID(ctx, userID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx = auth.WithIdentity(ctx, user.PublicProfile())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func rejectUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"kind": "unauthorized", "message": message},
	})
}
