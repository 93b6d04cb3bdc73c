package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// PlaylistHandler serves playlist CRUD and membership endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Graph     GraphToggler
	Queries   GraphQueries
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondInvalid(ctx, w, "name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("playlist create failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Playlist{"playlist": playlist})
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	playlistID, ok := pathID(ctx, w, r, "playlistId", "playlist id")
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Playlist{"playlist": playlist})
}

// GetVideo handles GET /api/v1/playlists/{playlistId}/videos/{videoId}. The
// video must be a member of the playlist; a non-member reads as not found.
func (h PlaylistHandler) GetVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	playlistID, ok := pathID(ctx, w, r, "playlistId", "playlist id")
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId", "video id")
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	member := false
	for _, id := range playlist.VideoIDs {
		if id == videoID {
			member = true
			break
		}
	}
	if !member {
		respondError(ctx, w, fmt.Errorf("playlist video: %w", repositories.ErrNotFound))
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Video{"video": video})
}

// UserPlaylists handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	ownerID := r.PathValue("userId")

	playlists, err := h.Queries.UserPlaylists(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Warn("playlist listing failed", "userId", ownerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]graph.PlaylistItem{"playlists": playlists})
}

// AddVideo handles PATCH /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(ctx, w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if err := h.Graph.AddPlaylistVideo(ctx, playlist.ID, videoID); err != nil {
		logging.FromContext(ctx).Warn("playlist add video failed", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "added"})
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(ctx, w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if err := h.Graph.RemovePlaylistVideo(ctx, playlist.ID, videoID); err != nil {
		logging.FromContext(ctx).Warn("playlist remove video failed", "playlistId", playlist.ID, "videoId", videoID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "removed"})
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.ownedPlaylist(ctx, w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondInvalid(ctx, w, "invalid request body")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		playlist.Name = name
	}
	if description := strings.TrimSpace(req.Description); description != "" {
		playlist.Description = description
	}
	playlist.UpdatedAt = h.now()

	if err := h.Playlists.Update(ctx, playlist); err != nil {
		logger.Error("playlist update failed", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Playlist{"playlist": playlist})
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	playlist, ok := h.ownedPlaylist(ctx, w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		logging.FromContext(ctx).Error("playlist delete failed", "error", err, "playlistId", playlist.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ownedPlaylist loads the playlist from the request path and verifies the
// caller owns it, writing the error response itself when either check fails.
func (h PlaylistHandler) ownedPlaylist(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
		return models.Playlist{}, false
	}

	playlistID, ok := pathID(ctx, w, r, "playlistId", "playlist id")
	if !ok {
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, err)
		return models.Playlist{}, false
	}
	if playlist.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return models.Playlist{}, false
	}

	return playlist, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
