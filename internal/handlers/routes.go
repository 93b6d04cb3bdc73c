package handlers

import (
	"net/http"

	"github.com/viewtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     UserStore
	Sessions  SessionManager
	Videos    VideoStore
	Comments  CommentStore
	Tweets    TweetStore
	Playlists PlaylistStore
	Graph     GraphToggler
	Queries   GraphQueries
	History   WatchRecorder
	Media     MediaStore
	Guard     middleware.SessionGuard
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Protected
// routes sit behind the session guard; public read routes get the optional
// variant so a signed-in viewer still influences flags like isSubscribed.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	users := UserHandler{Users: deps.Users, Media: deps.Media, Queries: deps.Queries}
	channels := ChannelHandler{Graph: deps.Graph, Queries: deps.Queries}
	videos := VideoHandler{Videos: deps.Videos, Media: deps.Media, History: deps.History, Queries: deps.Queries}
	likes := LikeHandler{Graph: deps.Graph, Queries: deps.Queries}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Queries: deps.Queries}
	tweets := TweetHandler{Tweets: deps.Tweets, Queries: deps.Queries}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Graph: deps.Graph, Queries: deps.Queries}

	guarded := deps.Guard.Wrap
	optional := deps.Guard.WrapOptional

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/users/register", authH.Register)
	mux.HandleFunc("/api/v1/users/login", authH.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", authH.Refresh)
	mux.Handle("/api/v1/users/logout", guarded(http.HandlerFunc(authH.Logout)))
	mux.Handle("/api/v1/users/current-user", guarded(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("/api/v1/users/watch-history", guarded(http.HandlerFunc(users.WatchHistory)))
	mux.Handle("/api/v1/users/change-password", guarded(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("/api/v1/users/update-account", guarded(http.HandlerFunc(users.UpdateAccount)))
	mux.Handle("/api/v1/users/avatar", guarded(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("/api/v1/users/cover", guarded(http.HandlerFunc(users.UpdateCover)))

	mux.Handle("/api/v1/channels/{username}", optional(http.HandlerFunc(channels.Profile)))

	mux.Handle("POST /api/v1/subscriptions/channel/{channelId}", guarded(http.HandlerFunc(channels.ToggleSubscription)))
	mux.Handle("GET /api/v1/subscriptions/channel/{channelId}", optional(http.HandlerFunc(channels.Subscribers)))
	mux.Handle("GET /api/v1/subscriptions/user/{subscriberId}", optional(http.HandlerFunc(channels.SubscribedChannels)))

	mux.Handle("POST /api/v1/videos", guarded(http.HandlerFunc(videos.Publish)))
	mux.Handle("GET /api/v1/videos/user/{userId}", optional(http.HandlerFunc(videos.UserVideos)))
	mux.Handle("GET /api/v1/videos/{videoId}", optional(http.HandlerFunc(videos.Get)))
	mux.Handle("PATCH /api/v1/videos/{videoId}", guarded(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{videoId}", guarded(http.HandlerFunc(videos.Delete)))
	mux.Handle("PATCH /api/v1/videos/{videoId}/toggle-publish", guarded(http.HandlerFunc(videos.TogglePublish)))

	mux.Handle("POST /api/v1/likes/toggle/video/{videoId}", guarded(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/toggle/comment/{commentId}", guarded(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("POST /api/v1/likes/toggle/tweet/{tweetId}", guarded(http.HandlerFunc(likes.ToggleTweet)))
	mux.Handle("GET /api/v1/likes/videos", guarded(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("GET /api/v1/comments/video/{videoId}", optional(http.HandlerFunc(comments.List)))
	mux.Handle("POST /api/v1/comments/video/{videoId}", guarded(http.HandlerFunc(comments.Add)))
	mux.Handle("PATCH /api/v1/comments/{commentId}", guarded(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/{commentId}", guarded(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/tweets", guarded(http.HandlerFunc(tweets.Create)))
	mux.Handle("GET /api/v1/tweets/user/{userId}", optional(http.HandlerFunc(tweets.UserTweets)))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", guarded(http.HandlerFunc(tweets.Update)))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", guarded(http.HandlerFunc(tweets.Delete)))

	mux.Handle("POST /api/v1/playlists", guarded(http.HandlerFunc(playlists.Create)))
	mux.Handle("GET /api/v1/playlists/user/{userId}", optional(http.HandlerFunc(playlists.UserPlaylists)))
	mux.Handle("GET /api/v1/playlists/{playlistId}", optional(http.HandlerFunc(playlists.Get)))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", guarded(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", guarded(http.HandlerFunc(playlists.Delete)))
	mux.Handle("GET /api/v1/playlists/{playlistId}/videos/{videoId}", optional(http.HandlerFunc(playlists.GetVideo)))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}/videos/{videoId}", guarded(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", guarded(http.HandlerFunc(playlists.RemoveVideo)))
}
