package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTokenStore struct {
	tokens map[string]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]string)}
}

func (s *fakeTokenStore) RefreshToken(_ context.Context, userID string) (string, error) {
	return s.tokens[userID], nil
}

func (s *fakeTokenStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.tokens[userID] = token
	return nil
}

func TestManagerIssuePersistsRefreshToken(t *testing.T) {
	store := newFakeTokenStore()
	manager := NewManager(newTestSigner(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), store)

	tokens, err := manager.Issue(context.Background(), "user-123")
	require.NoError(t, err)
	require.Equal(t, tokens.RefreshToken, store.tokens["user-123"])
}

func TestManagerRotateIsSingleUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer := newTestSigner(now)
	store := newFakeTokenStore()
	manager := NewManager(signer, store)

	first, err := manager.Issue(context.Background(), "user-123")
	require.NoError(t, err)

	// Advance the clock so the rotated pair differs from the first.
	signer.nowFunc = func() time.Time { return now.Add(time.Minute) }

	second, err := manager.Rotate(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, second.RefreshToken, store.tokens["user-123"])

	// Replaying the rotated-away token must fail.
	_, err = manager.Rotate(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReuse)

	// The fresh token still works.
	signer.nowFunc = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = manager.Rotate(context.Background(), second.RefreshToken)
	require.NoError(t, err)
}

func TestManagerRotateRejectsMissingToken(t *testing.T) {
	manager := NewManager(newTestSigner(time.Now()), newFakeTokenStore())

	_, err := manager.Rotate(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestManagerRotateRejectsInvalidToken(t *testing.T) {
	manager := NewManager(newTestSigner(time.Now()), newFakeTokenStore())

	_, err := manager.Rotate(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManagerRotateAfterRevoke(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeTokenStore()
	manager := NewManager(newTestSigner(now), store)

	tokens, err := manager.Issue(context.Background(), "user-123")
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(context.Background(), "user-123"))

	_, err = manager.Rotate(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReuse)
}

func TestManagerVerifyAccess(t *testing.T) {
	manager := NewManager(newTestSigner(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)), newFakeTokenStore())

	tokens, err := manager.Issue(context.Background(), "user-123")
	require.NoError(t, err)

	subject, err := manager.VerifyAccess(tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-123", subject)
}
