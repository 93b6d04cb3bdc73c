package handlers

import (
	"context"
	"time"

	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/storage"
)

// UserStore captures the persistence operations required by the auth and
// profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager drives the session token lifecycle for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for uploaded videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
}

// WatchRecorder notes which videos a user has watched.
type WatchRecorder interface {
	Record(ctx context.Context, userID, videoID string, watchedAt time.Time) error
}

// GraphToggler applies idempotent toggles to the relationship graph.
type GraphToggler interface {
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	ToggleLike(ctx context.Context, target models.LikeTarget, targetID, userID string) (bool, error)
	AddPlaylistVideo(ctx context.Context, playlistID, videoID string) error
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) error
}

// GraphQueries answers composed read queries over the relationship graph.
type GraphQueries interface {
	ChannelSubscribers(ctx context.Context, channelID string, page graph.Page) (graph.SubscriberPage, error)
	SubscribedChannels(ctx context.Context, subscriberID, viewerID string, page graph.Page) (graph.ChannelPage, error)
	LikedVideos(ctx context.Context, userID string, page graph.Page) ([]graph.LikedVideo, error)
	WatchHistory(ctx context.Context, userID string, page graph.Page) ([]graph.WatchedVideo, error)
	VideoComments(ctx context.Context, videoID string, page graph.Page) (graph.CommentPage, error)
	UserTweets(ctx context.Context, userID string, page graph.Page) ([]graph.TweetItem, error)
	UserVideos(ctx context.Context, ownerID string, page graph.Page) ([]graph.VideoItem, error)
	Profile(ctx context.Context, username, viewerID string) (graph.ChannelProfile, error)
	UserPlaylists(ctx context.Context, ownerID string) ([]graph.PlaylistItem, error)
}

// MediaStore uploads media files to the object store.
type MediaStore = storage.MediaStore
