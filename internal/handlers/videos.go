package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/storage"
)

// VideoHandler serves video publishing and listing endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Media   MediaStore
	History WatchRecorder
	Queries GraphQueries
	NowFunc func() time.Time
}

// maxUploadMemory bounds the in-memory portion of multipart parsing; larger
// files spill to disk.
const maxUploadMemory = 64 << 20

// Publish handles POST /api/v1/videos. The multipart form must carry a
// "videoFile" and a "thumbnail" alongside title and description fields.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid video upload form", "error", err)
		respondInvalid(ctx, w, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondInvalid(ctx, w, "title and description are required")
		return
	}

	videoFiles := r.MultipartForm.File["videoFile"]
	thumbFiles := r.MultipartForm.File["thumbnail"]
	if len(videoFiles) == 0 || len(thumbFiles) == 0 {
		respondInvalid(ctx, w, "videoFile and thumbnail files are required")
		return
	}

	videoAsset, err := storage.UploadMultipart(ctx, h.Media, "videos", videoFiles[0])
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	thumbAsset, err := storage.UploadMultipart(ctx, h.Media, "thumbnails", thumbFiles[0])
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	duration := videoAsset.DurationSeconds
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			duration = parsed
		}
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		Title:        title,
		Description:  description,
		VideoURL:     videoAsset.URL,
		ThumbnailURL: thumbAsset.URL,
		Duration:     duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video create failed", "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]models.Video{"video": video})
}

// Get handles GET /api/v1/videos/{videoId}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	videoID, ok := pathID(ctx, w, r, "videoId", "video id")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	// A signed-in fetch counts as a watch; failures don't block the response.
	if user, authed := auth.IdentityFromContext(ctx); authed && h.History != nil {
		if err := h.History.Record(ctx, user.ID, video.ID, h.now()); err != nil {
			logging.FromContext(ctx).Warn("watch record failed", "videoId", video.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Video{"video": video})
}

// Update handles PATCH /api/v1/videos/{videoId}. Only the owner may change
// the title, description, or thumbnail.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	videoID, ok := pathID(ctx, w, r, "videoId", "video id")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid video update form", "error", err)
		respondInvalid(ctx, w, "invalid multipart form")
		return
	}

	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		video.Title = title
	}
	if description := strings.TrimSpace(r.FormValue("description")); description != "" {
		video.Description = description
	}
	if thumbs := r.MultipartForm.File["thumbnail"]; len(thumbs) > 0 {
		asset, err := storage.UploadMultipart(ctx, h.Media, "thumbnails", thumbs[0])
		if err != nil {
			logger.Error("thumbnail upload failed", "error", err)
			respondError(ctx, w, err)
			return
		}
		video.ThumbnailURL = asset.URL
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		logger.Error("video update failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Video{"video": video})
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, auth.ErrUnauthorized)
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
	if video.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		logging.FromContext(ctx).Error("publish toggle failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.Video{"video": video})
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	videoID, ok := pathID(ctx, w, r, "videoId", "video id")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if video.OwnerID != user.ID {
		respondError(ctx, w, auth.ErrUnauthorized)
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		logging.FromContext(ctx).Error("video delete failed", "error", err, "videoId", video.ID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "deleted"})
}

// UserVideos handles GET /api/v1/videos/user/{userId}.
func (h VideoHandler) UserVideos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	ownerID := r.PathValue("userId")
	page := pageFromRequest(r, graph.DefaultLimit)

	videos, err := h.Queries.UserVideos(ctx, ownerID, page)
	if err != nil {
		logging.FromContext(ctx).Warn("user video listing failed", "userId", ownerID, "error", err)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]graph.VideoItem{"videos": videos})
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
