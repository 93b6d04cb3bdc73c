package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/models"
)

func TestUserHandlerWatchHistory(t *testing.T) {
	watchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	queries := &fakeQueries{watched: []graph.WatchedVideo{
		{WatchedAt: watchedAt, Video: graph.VideoItem{Video: models.Video{ID: "vid-1", Title: "Harbor dawn"}}},
	}}
	handler := UserHandler{Queries: queries}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/watch-history", handler.WatchHistory)

	req := authedRequest(http.MethodGet, "/api/v1/users/watch-history?page=2&limit=3", models.User{ID: "viewer-7"})
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if queries.lastUserID != "viewer-7" {
		t.Fatalf("expected caller's own id, got %q", queries.lastUserID)
	}
	if queries.lastPage.Number != 2 || queries.lastPage.Limit != 3 {
		t.Fatalf("unexpected page window: %+v", queries.lastPage)
	}

	var resp struct {
		Videos []graph.WatchedVideo `json:"videos"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Videos) != 1 || resp.Videos[0].Video.Title != "Harbor dawn" {
		t.Fatalf("unexpected payload: %+v", resp.Videos)
	}
	if !resp.Videos[0].WatchedAt.Equal(watchedAt) {
		t.Fatalf("unexpected watchedAt: %v", resp.Videos[0].WatchedAt)
	}
}

func TestUserHandlerWatchHistoryRequiresAuth(t *testing.T) {
	handler := UserHandler{Queries: &fakeQueries{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/watch-history", handler.WatchHistory)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/watch-history", nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
