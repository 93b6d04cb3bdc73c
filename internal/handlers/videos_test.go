package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/storage"
)

type fakeMediaStore struct {
	uploads []string
	err     error
}

func (f *fakeMediaStore) Upload(_ context.Context, folder, filename string, r io.Reader) (storage.MediaAsset, error) {
	if f.err != nil {
		return storage.MediaAsset{}, f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return storage.MediaAsset{}, err
	}
	url := "https://media.example.com/" + folder + "/" + filename
	f.uploads = append(f.uploads, url)
	return storage.MediaAsset{URL: url}, nil
}

type fakeWatchRecorder struct {
	userIDs  []string
	videoIDs []string
	err      error
}

func (f *fakeWatchRecorder) Record(_ context.Context, userID, videoID string, _ time.Time) error {
	f.userIDs = append(f.userIDs, userID)
	f.videoIDs = append(f.videoIDs, videoID)
	return f.err
}

func multipartUpload(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create file %s: %v", name, err)
		}
		if _, err := part.Write([]byte("fake bytes")); err != nil {
			t.Fatalf("write file %s: %v", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestVideoHandlerPublish(t *testing.T) {
	videos := newInMemoryVideoStore()
	media := &fakeMediaStore{}
	handler := VideoHandler{Videos: videos, Media: media}

	body, contentType := multipartUpload(t,
		map[string]string{"title": "City timelapse", "description": "Dawn over the harbor.", "duration": "182.4"},
		map[string]string{"videoFile": "clip.mp4", "thumbnail": "thumb.jpg"},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "user-1"}))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		Video models.Video `json:"video"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Video.OwnerID != "user-1" {
		t.Fatalf("expected owner user-1 got %q", resp.Video.OwnerID)
	}
	if !resp.Video.IsPublished {
		t.Fatal("expected freshly published video")
	}
	if resp.Video.Duration != 182.4 {
		t.Fatalf("expected duration 182.4 got %v", resp.Video.Duration)
	}
	if len(media.uploads) != 2 {
		t.Fatalf("expected two uploads got %d", len(media.uploads))
	}
	if len(videos.videos) != 1 {
		t.Fatalf("expected one stored video got %d", len(videos.videos))
	}
}

func TestVideoHandlerPublishRequiresFiles(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore(), Media: &fakeMediaStore{}}

	body, contentType := multipartUpload(t,
		map[string]string{"title": "No media", "description": "Missing files."},
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", body)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "user-1"}))
	rec := httptest.NewRecorder()

	handler.Publish(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestVideoHandlerGetRecordsWatch(t *testing.T) {
	videos := newInMemoryVideoStore()
	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, OwnerID: "owner-1", IsPublished: true}

	recorder := &fakeWatchRecorder{}
	handler := VideoHandler{Videos: videos, History: recorder}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/videos/{videoId}", handler.Get)

	req := authedRequest(http.MethodGet, "/api/v1/videos/"+videoID, models.User{ID: "viewer-7"})
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(recorder.videoIDs) != 1 || recorder.videoIDs[0] != videoID || recorder.userIDs[0] != "viewer-7" {
		t.Fatalf("expected one watch record for viewer-7, got %v -> %v", recorder.userIDs, recorder.videoIDs)
	}
}

func TestVideoHandlerGetAnonymousSkipsWatchRecord(t *testing.T) {
	videos := newInMemoryVideoStore()
	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, IsPublished: true}

	recorder := &fakeWatchRecorder{}
	handler := VideoHandler{Videos: videos, History: recorder}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/videos/{videoId}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+videoID, nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(recorder.videoIDs) != 0 {
		t.Fatalf("expected no watch records, got %v", recorder.videoIDs)
	}
}

func TestVideoHandlerGetMalformedID(t *testing.T) {
	// A malformed id must be rejected at the boundary instead of surfacing
	// as an internal error from the database layer.
	handler := VideoHandler{Videos: newInMemoryVideoStore()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/videos/{videoId}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/not-a-uuid", nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Kind != "invalid_argument" {
		t.Fatalf("expected kind invalid_argument got %q", resp.Error.Kind)
	}
}

func TestVideoHandlerTogglePublish(t *testing.T) {
	videos := newInMemoryVideoStore()
	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, OwnerID: "user-1", IsPublished: true}

	handler := VideoHandler{Videos: videos, Media: &fakeMediaStore{}}

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}/toggle-publish", handler.TogglePublish)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoID+"/toggle-publish", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "user-1"}))
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if videos.videos[videoID].IsPublished {
		t.Fatal("expected video to be unpublished")
	}

	// Toggling again republishes.
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoID+"/toggle-publish", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "user-1"}))
	routeRequest(t, mux, req)

	if !videos.videos[videoID].IsPublished {
		t.Fatal("expected video to be republished")
	}
}

func TestVideoHandlerTogglePublishRejectsNonOwner(t *testing.T) {
	videos := newInMemoryVideoStore()
	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, OwnerID: "owner-1", IsPublished: true}

	handler := VideoHandler{Videos: videos, Media: &fakeMediaStore{}}

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/videos/{videoId}/toggle-publish", handler.TogglePublish)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoID+"/toggle-publish", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "intruder"}))
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if !videos.videos[videoID].IsPublished {
		t.Fatal("expected video to stay published")
	}
}

func TestVideoHandlerDeleteRejectsNonOwner(t *testing.T) {
	videos := newInMemoryVideoStore()
	videoID := uuid.NewString()
	videos.videos[videoID] = models.Video{ID: videoID, OwnerID: "owner-1"}

	handler := VideoHandler{Videos: videos, Media: &fakeMediaStore{}}

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+videoID, nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "intruder"}))
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
	if len(videos.videos) != 1 {
		t.Fatal("expected video to remain")
	}
}

func TestVideoHandlerDeleteMissingReportsNotFound(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore(), Media: &fakeMediaStore{}}

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/videos/{videoId}", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+uuid.NewString(), nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: "user-1"}))
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}
