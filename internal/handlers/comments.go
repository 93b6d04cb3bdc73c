package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
)

// CommentHandler serves comment CRUD endpoints scoped to videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Queries  GraphQueries
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/comments/video/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	videoID := r.PathValue("videoId")
	page := pageFromRequest(r, graph.DefaultLimit)

	result, err := h.Queries.VideoComments(ctx, videoID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("comment listing failed", "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Add handles POST /api/v1/comments/video/{videoId}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondInvalid(ctx, w, "content is required")
		return
	}

	videoID, ok := pathID(ctx, w, r, "videoId", "video id")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		logger.Error("comment create failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Comment{"comment": comment})
}

// Update handles PATCH /api/v1/comments/{commentId}. Existence is checked
// before ownership so a missing comment reports not found, not unauthorized.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	commentID, ok := pathID(ctx, w, r, "commentId", "comment id")
	if !ok {
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondInvalid(ctx, w, "content is required")
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = h.now()

	if err := h.Comments.Update(ctx, comment); err != nil {
		logger.Error("comment update failed", "error", err, "commentId", comment.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Comment{"comment": comment})
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	commentID, ok := pathID(ctx, w, r, "commentId", "comment id")
	if !ok {
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comment.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		logging.FromContext(ctx).Error("comment delete failed", "error", err, "commentId", comment.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
