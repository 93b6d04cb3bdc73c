package handlers

import (
	"net/http"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
)

// LikeHandler serves like toggles and the liked-video listing.
type LikeHandler struct {
	Graph   GraphToggler
	Queries GraphQueries
}

// ToggleVideo handles POST /api/v1/likes/toggle/video/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, "videoId")
}

// ToggleComment handles POST /api/v1/likes/toggle/comment/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, "commentId")
}

// ToggleTweet handles POST /api/v1/likes/toggle/tweet/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, "tweetId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget, param string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	targetID := r.PathValue(param)
	liked, err := h.Graph.ToggleLike(ctx, target, targetID, user.ID)
	if err != nil {
		logging.FromContext(ctx).Warn("like toggle failed", "target", string(target), "targetId", targetID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked})
}

// LikedVideos handles GET /api/v1/likes/videos, listing the published videos
// the caller has liked.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
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
	videos, err := h.Queries.LikedVideos(ctx, user.ID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("liked video listing failed", "userId", user.ID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]graph.LikedVideo{"videos": videos})
}
