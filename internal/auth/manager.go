package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/viewtube/backend/internal/models"
)

// RefreshTokenStore persists the single refresh-token slot on a user record.
type RefreshTokenStore interface {
	RefreshToken(ctx context.Context, userID string) (string, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
}

// Manager manages the session token lifecycle: issuing pairs, rotating them
// against the server-mirrored refresh token, and revoking on logout.
type Manager struct {
	signer *TokenSigner
	store  RefreshTokenStore
}

// NewManager constructs a Manager around the provided signer and store.
func NewManager(signer *TokenSigner, store RefreshTokenStore) *Manager {
	if signer == nil || store == nil {
		panic("auth: signer and store must not be nil")
	}
	return &Manager{signer: signer, store: store}
}

// Issue creates a new token pair for the user and mirrors the refresh token
// onto the user record so later rotations can detect replays.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	tokens, err := m.signer.Issue(userID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return tokens, nil
}

// Rotate exchanges a refresh token for a fresh pair. The incoming token must
// byte-match the one currently stored for its subject: any replay after a
// legitimate rotation fails with ErrTokenReuse and forces re-authentication.
func (m *Manager) Rotate(ctx context.Context, incoming string) (models.SessionTokens, error) {
	if incoming == "" {
		return models.SessionTokens{}, ErrUnauthorized
	}

	userID, err := m.signer.VerifyRefresh(incoming)
	if err != nil {
		return models.SessionTokens{}, err
	}

	current, err := m.store.RefreshToken(ctx, userID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("load stored refresh token: %w", err)
	}

	if current == "" || subtle.ConstantTimeCompare([]byte(current), []byte(incoming)) != 1 {
		return models.SessionTokens{}, ErrTokenReuse
	}

	return m.Issue(ctx, userID)
}

// VerifyAccess validates an access token and returns its subject id.
func (m *Manager) VerifyAccess(raw string) (string, error) {
	return m.signer.VerifyAccess(raw)
}

// Revoke clears the stored refresh token for the user, invalidating any
// outstanding refresh token at the next rotation attempt.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id must be provided")
	}
	if err := m.store.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
