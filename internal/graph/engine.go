package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/logging"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// Engine answers multi-hop queries over the relationship graph: it matches
// root edges, joins the referenced entities, flattens one-to-one joins into a
// single embedded object, projects down to safe fields, computes derived
// counts, and applies creation-time-descending pagination.
//
// A missing root entity fails with repositories.ErrNotFound; a root with zero
// matching edges returns an empty page.
type Engine struct {
	pool db.Pool
}

// NewEngine constructs a query engine over the shared connection pool.
func NewEngine(pool db.Pool) *Engine {
	return &Engine{pool: pool}
}

// SubscriberPage lists a channel's subscribers with the total inbound count.
type SubscriberPage struct {
	Subscribers []models.UserSummary `json:"subscribers"`
	Total       int64                `json:"subscriberCount"`
	Page        int                  `json:"page"`
}

// ChannelSummary is a subscribed channel annotated with the channel's own
// subscriber count and whether the viewer subscribes to it.
type ChannelSummary struct {
	models.UserSummary
	SubscriberCount int64 `json:"subscriberCount"`
	IsSubscribed    bool  `json:"isSubscribed"`
}

// ChannelPage lists channels a user subscribes to.
type ChannelPage struct {
	Channels []ChannelSummary `json:"channels"`
	Total    int64            `json:"channelsCount"`
	Page     int              `json:"page"`
}

// VideoItem is a video joined with its flattened owner projection.
type VideoItem struct {
	models.Video
	Owner models.UserSummary `json:"owner"`
}

// LikedVideo is one liked-videos result: the like edge metadata plus the
// embedded video object (never an array).
type LikedVideo struct {
	LikeID  string    `json:"likeId"`
	LikedAt time.Time `json:"likedAt"`
	Video   VideoItem `json:"video"`
}

// WatchedVideo is one watch-history result: when the viewer last watched the
// video plus the embedded video object.
type WatchedVideo struct {
	WatchedAt time.Time `json:"watchedAt"`
	Video     VideoItem `json:"video"`
}

// CommentItem is a comment joined with its author projection.
type CommentItem struct {
	models.Comment
	Author models.UserSummary `json:"author"`
}

// CommentPage lists a video's comments with total bookkeeping.
type CommentPage struct {
	Comments   []CommentItem `json:"comments"`
	Total      int64         `json:"totalComments"`
	TotalPages int64         `json:"totalPages"`
	Page       int           `json:"currentPage"`
}

// TweetItem is a tweet joined with its author projection.
type TweetItem struct {
	models.Tweet
	Author models.UserSummary `json:"author"`
}

// ChannelProfile is a channel's public profile with derived graph counts.
type ChannelProfile struct {
	models.UserSummary
	CoverURL        string `json:"coverUrl"`
	Email           string `json:"email"`
	SubscriberCount int64  `json:"subscriberCount"`
	SubscribedTo    int64  `json:"channelsSubscribedTo"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// PlaylistItem is a playlist with its published member videos joined in.
type PlaylistItem struct {
	models.Playlist
	Videos []VideoItem `json:"videos"`
}

// ChannelSubscribers returns one page of a channel's subscribers together
// with the total inbound subscription count. The channel must exist.
func (e *Engine) ChannelSubscribers(ctx context.Context, channelID string, page Page) (SubscriberPage, error) {
	if err := validateID(channelID, "channel id"); err != nil {
		return SubscriberPage{}, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return SubscriberPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := e.requireUser(ctx, conn, channelID); err != nil {
		return SubscriberPage{}, err
	}

	result := SubscriberPage{Subscribers: []models.UserSummary{}, Page: page.Number}

	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1
    `, channelID).Scan(&result.Total)
	if err != nil {
		return SubscriberPage{}, fmt.Errorf("count subscribers: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
        OFFSET $2 LIMIT $3
    `, channelID, page.Offset(), page.Limit)
	if err != nil {
		return SubscriberPage{}, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sub models.UserSummary
		if err := rows.Scan(&sub.ID, &sub.Username, &sub.FullName, &sub.AvatarURL); err != nil {
			return SubscriberPage{}, fmt.Errorf("scan subscriber: %w", err)
		}
		result.Subscribers = append(result.Subscribers, sub)
	}

	if err := rows.Err(); err != nil {
		return SubscriberPage{}, fmt.Errorf("iterate subscribers: %w", err)
	}

	return result, nil
}

// SubscribedChannels returns one page of the channels a user subscribes to,
// each annotated with its subscriber count and whether the viewer subscribes
// to it. The subscriber must exist.
func (e *Engine) SubscribedChannels(ctx context.Context, subscriberID, viewerID string, page Page) (ChannelPage, error) {
	if err := validateID(subscriberID, "subscriber id"); err != nil {
		return ChannelPage{}, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return ChannelPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := e.requireUser(ctx, conn, subscriberID); err != nil {
		return ChannelPage{}, err
	}

	result := ChannelPage{Channels: []ChannelSummary{}, Page: page.Number}

	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1
    `, subscriberID).Scan(&result.Total)
	if err != nil {
		return ChannelPage{}, fmt.Errorf("count subscribed channels: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url,
               (SELECT COUNT(*) FROM subscriptions cs WHERE cs.channel_id = u.id) AS subscriber_count,
               EXISTS (SELECT 1 FROM subscriptions vs WHERE vs.channel_id = u.id AND vs.subscriber_id = NULLIF($2, '')::UUID) AS is_subscribed
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
        OFFSET $3 LIMIT $4
    `, subscriberID, viewerID, page.Offset(), page.Limit)
	if err != nil {
		return ChannelPage{}, fmt.Errorf("query subscribed channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ch ChannelSummary
		if err := rows.Scan(&ch.ID, &ch.Username, &ch.FullName, &ch.AvatarURL, &ch.SubscriberCount, &ch.IsSubscribed); err != nil {
			return ChannelPage{}, fmt.Errorf("scan subscribed channel: %w", err)
		}
		result.Channels = append(result.Channels, ch)
	}

	if err := rows.Err(); err != nil {
		return ChannelPage{}, fmt.Errorf("iterate subscribed channels: %w", err)
	}

	return result, nil
}

// LikedVideos returns one page of the videos a user has liked, newest like
// first. Only published videos are included; like edges whose video has been
// deleted or unpublished are silently excluded. The video and its owner are
// flattened to single embedded objects.
func (e *Engine) LikedVideos(ctx context.Context, userID string, page Page) ([]LikedVideo, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT l.id, l.created_at,
               v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               o.id, o.username, o.full_name, o.avatar_url
        FROM likes l
        JOIN videos v ON v.id = l.video_id AND v.is_published
        JOIN users o ON o.id = v.owner_id
        WHERE l.liked_by = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
        OFFSET $2 LIMIT $3
    `, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	items := []LikedVideo{}
	for rows.Next() {
		var item LikedVideo
		if err := rows.Scan(&item.LikeID, &item.LikedAt,
			&item.Video.ID, &item.Video.OwnerID, &item.Video.Title, &item.Video.Description,
			&item.Video.VideoURL, &item.Video.ThumbnailURL, &item.Video.Duration, &item.Video.Views,
			&item.Video.IsPublished, &item.Video.CreatedAt, &item.Video.UpdatedAt,
			&item.Video.Owner.ID, &item.Video.Owner.Username, &item.Video.Owner.FullName, &item.Video.Owner.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan liked video: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return items, nil
}

// WatchHistory returns one page of the videos a user has watched, most
// recently watched first. Unpublished and deleted videos are silently
// excluded.
func (e *Engine) WatchHistory(ctx context.Context, userID string, page Page) ([]WatchedVideo, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT wh.watched_at,
               v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               o.id, o.username, o.full_name, o.avatar_url
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id AND v.is_published
        JOIN users o ON o.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
        OFFSET $2 LIMIT $3
    `, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	items := []WatchedVideo{}
	for rows.Next() {
		var item WatchedVideo
		if err := rows.Scan(&item.WatchedAt,
			&item.Video.ID, &item.Video.OwnerID, &item.Video.Title, &item.Video.Description,
			&item.Video.VideoURL, &item.Video.ThumbnailURL, &item.Video.Duration, &item.Video.Views,
			&item.Video.IsPublished, &item.Video.CreatedAt, &item.Video.UpdatedAt,
			&item.Video.Owner.ID, &item.Video.Owner.Username, &item.Video.Owner.FullName, &item.Video.Owner.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan watched video: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return items, nil
}

// VideoComments returns one page of a video's comments joined with the
// minimal author projection, newest first. The video must exist.
func (e *Engine) VideoComments(ctx context.Context, videoID string, page Page) (CommentPage, error) {
	if err := validateID(videoID, "video id"); err != nil {
		return CommentPage{}, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return CommentPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, videoID).Scan(&exists); err != nil {
		return CommentPage{}, fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return CommentPage{}, fmt.Errorf("video: %w", repositories.ErrNotFound)
	}

	result := CommentPage{Comments: []CommentItem{}, Page: page.Number}

	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments WHERE video_id = $1
    `, videoID).Scan(&result.Total)
	if err != nil {
		return CommentPage{}, fmt.Errorf("count comments: %w", err)
	}
	result.TotalPages = (result.Total + int64(page.Limit) - 1) / int64(page.Limit)

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
               u.id, u.username, u.full_name, u.avatar_url
        FROM comments c
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC
        OFFSET $2 LIMIT $3
    `, videoID, page.Offset(), page.Limit)
	if err != nil {
		return CommentPage{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item CommentItem
		if err := rows.Scan(&item.ID, &item.VideoID, &item.OwnerID, &item.Content, &item.CreatedAt, &item.UpdatedAt,
			&item.Author.ID, &item.Author.Username, &item.Author.FullName, &item.Author.AvatarURL); err != nil {
			return CommentPage{}, fmt.Errorf("scan comment: %w", err)
		}
		result.Comments = append(result.Comments, item)
	}

	if err := rows.Err(); err != nil {
		return CommentPage{}, fmt.Errorf("iterate comments: %w", err)
	}

	return result, nil
}

// UserTweets returns one page of a user's tweets joined with the author
// projection, newest first. The user must exist.
func (e *Engine) UserTweets(ctx context.Context, userID string, page Page) ([]TweetItem, error) {
	if err := validateID(userID, "user id"); err != nil {
		return nil, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := e.requireUser(ctx, conn, userID); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `
        SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
               u.id, u.username, u.full_name, u.avatar_url
        FROM tweets t
        JOIN users u ON u.id = t.owner_id
        WHERE t.owner_id = $1
        ORDER BY t.created_at DESC
        OFFSET $2 LIMIT $3
    `, userID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query tweets: %w", err)
	}
	defer rows.Close()

	items := []TweetItem{}
	for rows.Next() {
		var item TweetItem
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Content, &item.CreatedAt, &item.UpdatedAt,
			&item.Author.ID, &item.Author.Username, &item.Author.FullName, &item.Author.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tweets: %w", err)
	}

	return items, nil
}

// UserVideos returns one page of a channel's published videos with the owner
// flattened in, newest first. The owner must exist.
func (e *Engine) UserVideos(ctx context.Context, ownerID string, page Page) ([]VideoItem, error) {
	if err := validateID(ownerID, "user id"); err != nil {
		return nil, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := e.requireUser(ctx, conn, ownerID); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.views, v.is_published, v.created_at, v.updated_at,
               o.id, o.username, o.full_name, o.avatar_url
        FROM videos v
        JOIN users o ON o.id = v.owner_id
        WHERE v.owner_id = $1 AND v.is_published
        ORDER BY v.created_at DESC
        OFFSET $2 LIMIT $3
    `, ownerID, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	items := []VideoItem{}
	for rows.Next() {
		var item VideoItem
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.VideoURL,
			&item.ThumbnailURL, &item.Duration, &item.Views, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt,
			&item.Owner.ID, &item.Owner.Username, &item.Owner.FullName, &item.Owner.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return items, nil
}

// Profile returns a channel's public profile by username, annotated with its
// subscriber count, the number of channels it subscribes to, and whether the
// viewer subscribes to it.
func (e *Engine) Profile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url, u.cover_url, u.email,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to,
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = NULLIF($2, '')::UUID) AS is_subscribed
        FROM users u
        WHERE u.username = $1
    `, username, viewerID)

	var profile ChannelProfile
	if err := row.Scan(&profile.ID, &profile.Username, &profile.FullName, &profile.AvatarURL,
		&profile.CoverURL, &profile.Email, &profile.SubscriberCount, &profile.SubscribedTo, &profile.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChannelProfile{}, fmt.Errorf("channel: %w", repositories.ErrNotFound)
		}
		return ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return profile, nil
}

// UserPlaylists returns a user's playlists with their published member videos
// joined in, newest playlist first. Orphaned or unpublished references are
// filtered out.
func (e *Engine) UserPlaylists(ctx context.Context, ownerID string) ([]PlaylistItem, error) {
	if err := validateID(ownerID, "user id"); err != nil {
		return nil, err
	}

	ctx, span := logging.StartSpan(ctx, "graph.user_playlists")
	defer span.End()

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := e.requireUser(ctx, conn, ownerID); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, description, created_at, updated_at
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}

	items := []PlaylistItem{}
	for rows.Next() {
		var item PlaylistItem
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	rows.Close()

	for i := range items {
		videoRows, err := conn.Query(ctx, `
            SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
                   v.duration, v.views, v.is_published, v.created_at, v.updated_at,
                   o.id, o.username, o.full_name, o.avatar_url
            FROM playlist_videos pv
            JOIN videos v ON v.id = pv.video_id AND v.is_published
            JOIN users o ON o.id = v.owner_id
            WHERE pv.playlist_id = $1
            ORDER BY pv.position
        `, items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("query playlist videos: %w", err)
		}

		items[i].Videos = []VideoItem{}
		for videoRows.Next() {
			var v VideoItem
			if err := videoRows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL,
				&v.ThumbnailURL, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
				&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL); err != nil {
				videoRows.Close()
				return nil, fmt.Errorf("scan playlist video: %w", err)
			}
			items[i].VideoIDs = append(items[i].VideoIDs, v.ID)
			items[i].Videos = append(items[i].Videos, v)
		}
		if err := videoRows.Err(); err != nil {
			videoRows.Close()
			return nil, fmt.Errorf("iterate playlist videos: %w", err)
		}
		videoRows.Close()
	}

	return items, nil
}

func (e *Engine) requireUser(ctx context.Context, conn queryRower, id string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return fmt.Errorf("user: %w", repositories.ErrNotFound)
	}
	return nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
