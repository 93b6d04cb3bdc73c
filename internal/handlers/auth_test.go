package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByLogin(_ context.Context, usernameOrEmail string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == usernameOrEmail || user.Email == usernameOrEmail {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) RefreshToken(_ context.Context, userID string) (string, error) {
	user, ok := s.users[userID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return user.RefreshToken, nil
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

func newTestSessionManager(store auth.RefreshTokenStore) *auth.Manager {
	signer := auth.NewTokenSigner("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	return auth.NewManager(signer, store)
}

func seedUser(t *testing.T, store *inMemoryUserStore, username, email, password string) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := models.User{
		ID:       "11111111-1111-1111-1111-111111111111",
		Username: username,
		Email:    email,
		FullName: "Test User",
		Password: string(hashed),
	}
	store.users[user.ID] = user
	return user
}

func TestAuthHandlerRegister(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, err := json.Marshal(registerRequest{
		Username: "maya",
		Email:    "maya@example.com",
		FullName: "Maya Okafor",
		Password: "supersafe",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		User models.User `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Username != "maya" {
		t.Fatalf("expected username maya got %q", resp.User.Username)
	}

	stored, err := store.FindByLogin(context.Background(), "maya")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if stored.Password == "supersafe" || stored.Password == "" {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestAuthHandlerRegisterValidation(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	cases := []struct {
		name string
		body registerRequest
	}{
		{name: "missing fields", body: registerRequest{Username: "maya"}},
		{name: "bad email", body: registerRequest{Username: "maya", Email: "nope", FullName: "Maya", Password: "supersafe"}},
		{name: "short password", body: registerRequest{Username: "maya", Email: "maya@example.com", FullName: "Maya", Password: "short"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "maya", "maya@example.com", "supersafe")
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, _ := json.Marshal(registerRequest{
		Username: "maya",
		Email:    "other@example.com",
		FullName: "Maya Okafor",
		Password: "supersafe",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d got %d", http.StatusConflict, rec.Code)
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "maya", "maya@example.com", "supersafe")
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, _ := json.Marshal(loginRequest{Email: "maya@example.com", Password: "supersafe"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("expected user %q got %q", user.ID, resp.User.ID)
	}

	cookies := rec.Result().Cookies()
	names := make(map[string]*http.Cookie, len(cookies))
	for _, cookie := range cookies {
		names[cookie.Name] = cookie
	}
	for _, want := range []string{"accessToken", "refreshToken"} {
		cookie, ok := names[want]
		if !ok {
			t.Fatalf("expected %s cookie to be set", want)
		}
		if !cookie.HttpOnly || !cookie.Secure {
			t.Fatalf("expected %s cookie to be HttpOnly and Secure", want)
		}
	}

	// The issued refresh token is mirrored on the user record.
	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.RefreshToken != resp.Tokens.RefreshToken {
		t.Fatal("expected refresh token to be persisted on the user")
	}
}

func TestAuthHandlerLoginByUsername(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "maya", "maya@example.com", "supersafe")
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, _ := json.Marshal(loginRequest{Username: "maya", Password: "supersafe"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
}

func TestAuthHandlerLoginRejectsBadPassword(t *testing.T) {
	store := newInMemoryUserStore()
	seedUser(t, store, "maya", "maya@example.com", "supersafe")
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, _ := json.Marshal(loginRequest{Email: "maya@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerLoginRejectsUnknownUser(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	body, _ := json.Marshal(loginRequest{Email: "ghost@example.com", Password: "supersafe"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerRefreshFromCookie(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "maya", "maya@example.com", "supersafe")
	sessions := newTestSessionManager(store)
	handler := AuthHandler{Users: store, Sessions: sessions}

	issued, err := sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: issued.RefreshToken})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Tokens models.SessionTokens `json:"tokens"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected fresh tokens, got %+v", resp.Tokens)
	}
}

func TestAuthHandlerRefreshFromBody(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "maya", "maya@example.com", "supersafe")
	sessions := newTestSessionManager(store)
	handler := AuthHandler{Users: store, Sessions: sessions}

	issued, err := sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	body, _ := json.Marshal(refreshRequest{RefreshToken: issued.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
}

func TestAuthHandlerRefreshRejectsReplay(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "maya", "maya@example.com", "supersafe")
	sessions := newTestSessionManager(store)
	handler := AuthHandler{Users: store, Sessions: sessions}

	issued, err := sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// A later login supersedes the first refresh token.
	if _, err := sessions.Issue(context.Background(), user.ID); err != nil {
		t.Fatalf("reissue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: issued.RefreshToken})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Kind != "token_reuse" {
		t.Fatalf("expected token_reuse kind got %q", resp.Error.Kind)
	}
}

func TestAuthHandlerRefreshRejectsMissingToken(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessionManager(store)}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerLogout(t *testing.T) {
	store := newInMemoryUserStore()
	user := seedUser(t, store, "maya", "maya@example.com", "supersafe")
	sessions := newTestSessionManager(store)
	handler := AuthHandler{Users: store, Sessions: sessions}

	issued, err := sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), user.PublicProfile()))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	stored, _ := store.FindByID(context.Background(), user.ID)
	if stored.RefreshToken != "" {
		t.Fatal("expected refresh token to be cleared")
	}

	// The superseded refresh token no longer rotates.
	if _, err := sessions.Rotate(context.Background(), issued.RefreshToken); err == nil {
		t.Fatal("expected rotation after logout to fail")
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Value != "" {
			t.Fatalf("expected %s cookie to be cleared", cookie.Name)
		}
	}
}
