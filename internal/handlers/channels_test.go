package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

type fakeToggler struct {
	subscribed bool
	liked      bool
	err        error

	lastSubscriber string
	lastChannel    string
	lastTarget     models.LikeTarget
	lastTargetID   string
	lastPlaylist   string
	lastVideo      string
}

func (f *fakeToggler) ToggleSubscription(_ context.Context, subscriberID, channelID string) (bool, error) {
	f.lastSubscriber = subscriberID
	f.lastChannel = channelID
	return f.subscribed, f.err
}

func (f *fakeToggler) ToggleLike(_ context.Context, target models.LikeTarget, targetID, userID string) (bool, error) {
	f.lastTarget = target
	f.lastTargetID = targetID
	return f.liked, f.err
}

func (f *fakeToggler) AddPlaylistVideo(_ context.Context, playlistID, videoID string) error {
	f.lastPlaylist = playlistID
	f.lastVideo = videoID
	return f.err
}

func (f *fakeToggler) RemovePlaylistVideo(_ context.Context, playlistID, videoID string) error {
	f.lastPlaylist = playlistID
	f.lastVideo = videoID
	return f.err
}

func authedRequest(method, target string, user models.User) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(auth.WithIdentity(req.Context(), user))
}

func routeRequest(t *testing.T, mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestChannelHandlerToggleSubscription(t *testing.T) {
	toggler := &fakeToggler{subscribed: true}
	handler := ChannelHandler{Graph: toggler}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/subscriptions/channel/{channelId}", handler.ToggleSubscription)

	user := models.User{ID: "user-1"}
	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/channel/chan-9", user)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if toggler.lastSubscriber != "user-1" || toggler.lastChannel != "chan-9" {
		t.Fatalf("unexpected toggle args: %q -> %q", toggler.lastSubscriber, toggler.lastChannel)
	}

	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["subscribed"] {
		t.Fatal("expected subscribed true")
	}
}

func TestChannelHandlerToggleSubscriptionRequiresAuth(t *testing.T) {
	handler := ChannelHandler{Graph: &fakeToggler{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/subscriptions/channel/{channelId}", handler.ToggleSubscription)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/channel/chan-9", nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestChannelHandlerToggleSubscriptionSelf(t *testing.T) {
	toggler := &fakeToggler{err: graph.ErrInvalidArgument}
	handler := ChannelHandler{Graph: toggler}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/subscriptions/channel/{channelId}", handler.ToggleSubscription)

	user := models.User{ID: "user-1"}
	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/channel/user-1", user)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

type fakeQueries struct {
	profile graph.ChannelProfile
	liked   []graph.LikedVideo
	watched []graph.WatchedVideo
	tweets  []graph.TweetItem
	err     error

	lastUsername string
	lastViewer   string
	lastUserID   string
	lastPage     graph.Page
}

func (f *fakeQueries) ChannelSubscribers(context.Context, string, graph.Page) (graph.SubscriberPage, error) {
	return graph.SubscriberPage{}, f.err
}

func (f *fakeQueries) SubscribedChannels(context.Context, string, string, graph.Page) (graph.ChannelPage, error) {
	return graph.ChannelPage{}, f.err
}

func (f *fakeQueries) LikedVideos(_ context.Context, userID string, page graph.Page) ([]graph.LikedVideo, error) {
	f.lastUserID = userID
	f.lastPage = page
	return f.liked, f.err
}

func (f *fakeQueries) WatchHistory(_ context.Context, userID string, page graph.Page) ([]graph.WatchedVideo, error) {
	f.lastUserID = userID
	f.lastPage = page
	return f.watched, f.err
}

func (f *fakeQueries) VideoComments(context.Context, string, graph.Page) (graph.CommentPage, error) {
	return graph.CommentPage{}, f.err
}

func (f *fakeQueries) UserTweets(_ context.Context, userID string, page graph.Page) ([]graph.TweetItem, error) {
	f.lastUserID = userID
	f.lastPage = page
	return f.tweets, f.err
}

func (f *fakeQueries) UserVideos(context.Context, string, graph.Page) ([]graph.VideoItem, error) {
	return nil, f.err
}

func (f *fakeQueries) Profile(_ context.Context, username, viewerID string) (graph.ChannelProfile, error) {
	f.lastUsername = username
	f.lastViewer = viewerID
	return f.profile, f.err
}

func (f *fakeQueries) UserPlaylists(context.Context, string) ([]graph.PlaylistItem, error) {
	return nil, f.err
}

func TestChannelHandlerProfile(t *testing.T) {
	queries := &fakeQueries{profile: graph.ChannelProfile{
		UserSummary:     models.UserSummary{ID: "user-1", Username: "maya"},
		SubscriberCount: 3,
		IsSubscribed:    true,
	}}
	handler := ChannelHandler{Queries: queries}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/channels/{username}", handler.Profile)

	viewer := models.User{ID: "viewer-7"}
	req := authedRequest(http.MethodGet, "/api/v1/channels/Maya", viewer)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if queries.lastUsername != "maya" {
		t.Fatalf("expected lowercased username, got %q", queries.lastUsername)
	}
	if queries.lastViewer != "viewer-7" {
		t.Fatalf("expected viewer id to be forwarded, got %q", queries.lastViewer)
	}

	var resp struct {
		Channel graph.ChannelProfile `json:"channel"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Channel.SubscriberCount != 3 || !resp.Channel.IsSubscribed {
		t.Fatalf("unexpected profile payload: %+v", resp.Channel)
	}
}

func TestChannelHandlerProfileAnonymousViewer(t *testing.T) {
	queries := &fakeQueries{}
	handler := ChannelHandler{Queries: queries}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/channels/{username}", handler.Profile)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/maya", nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if queries.lastViewer != "" {
		t.Fatalf("expected empty viewer id, got %q", queries.lastViewer)
	}
}

func TestChannelHandlerProfileNotFound(t *testing.T) {
	queries := &fakeQueries{err: repositories.ErrNotFound}
	handler := ChannelHandler{Queries: queries}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/channels/{username}", handler.Profile)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/ghost", nil)
	rec := routeRequest(t, mux, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}
