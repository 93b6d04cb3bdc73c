package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/storage"
)

// UserHandler serves account management endpoints for authenticated users.
type UserHandler struct {
	Users   UserStore
	Media   MediaStore
	Queries GraphQueries
	NowFunc func() time.Time
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.User{"user": user})
}

// WatchHistory handles GET /api/v1/users/watch-history, listing the videos
// the caller has watched, most recently watched first.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	page := pageFromRequest(r, graph.DefaultLimit)
	videos, err := h.Queries.WatchHistory(ctx, user.ID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("watch history listing failed", "userId", user.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]graph.WatchedVideo{"videos": videos})
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change-password payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondInvalid(ctx, w, "old and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		respondInvalid(ctx, w, "password must be at least 8 characters")
		return
	}

	// The guard strips credentials, so reload the record for the hash.
	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("change-password lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		logger.Warn("change-password old password mismatch", "userId", user.ID)
		respondInvalid(ctx, w, "old password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("change-password hash failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	user.Password = string(hashed)
	user.UpdatedAt = h.now()
	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("change-password update failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "password changed"})
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update-account payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		respondInvalid(ctx, w, "fullName or email is required")
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("update-account lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("update-account update failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.User{"user": user.PublicProfile()})
}

// UpdateAvatar handles PATCH /api/v1/users/avatar with a multipart form
// carrying an "avatar" file.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", func(user *models.User, url string) { user.AvatarURL = url })
}

// UpdateCover handles PATCH /api/v1/users/cover with a multipart form
// carrying a "coverImage" file.
func (h UserHandler) UpdateCover(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", func(user *models.User, url string) { user.CoverURL = url })
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, assign func(*models.User, string)) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Warn("invalid multipart form", "field", field, "error", err)
		respondInvalid(ctx, w, "invalid multipart form")
		return
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		respondInvalid(ctx, w, field+" file is required")
		return
	}

	asset, err := storage.UploadMultipart(ctx, h.Media, field+"s", headers[0])
	if err != nil {
		logger.Error("image upload failed", "field", field, "error", err)
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, identity.ID)
	if err != nil {
		logger.Error("image update lookup failed", "error", err, "userId", identity.ID)
		respondError(ctx, w, err)
		return
	}

	assign(&user, asset.URL)
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		logger.Error("image update persist failed", "error", err, "userId", user.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.User{"user": user.PublicProfile()})
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
