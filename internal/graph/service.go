package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

// UserFinder resolves users referenced by edges.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// VideoFinder resolves videos referenced by edges.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// SubscriptionStore persists subscription edges.
type SubscriptionStore interface {
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	Create(ctx context.Context, edge models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}

// LikeStore persists like edges.
type LikeStore interface {
	Find(ctx context.Context, target models.LikeTarget, targetID, userID string) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore persists playlists and their membership rows.
type PlaylistStore interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// Service applies idempotent-toggle semantics to the relationship graph.
// Toggles are check-then-act without locks: the store's uniqueness
// constraints are the backstop that converts a racing duplicate insert into
// "edge already exists" instead of corrupt state.
type Service struct {
	Users         UserFinder
	Videos        VideoFinder
	Subscriptions SubscriptionStore
	Likes         LikeStore
	Playlists     PlaylistStore
}

// ToggleSubscription removes the subscriber-to-channel edge when present and
// creates it otherwise. It reports the resulting state: true means subscribed.
func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if err := validateID(channelID, "channel id"); err != nil {
		return false, err
	}
	if subscriberID == channelID {
		return false, fmt.Errorf("%w: cannot subscribe to your own channel", ErrInvalidArgument)
	}

	if _, err := s.Users.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, fmt.Errorf("channel: %w", repositories.ErrNotFound)
		}
		return false, fmt.Errorf("resolve channel: %w", err)
	}

	subscribed, err := s.Subscriptions.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}

	if subscribed {
		err := s.Subscriptions.Delete(ctx, subscriberID, channelID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return false, fmt.Errorf("remove subscription: %w", err)
		}
		return false, nil
	}

	err = s.Subscriptions.Create(ctx, models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// A concurrent toggle won the insert; the edge exists either way.
		if errors.Is(err, repositories.ErrConflict) {
			return true, nil
		}
		return false, fmt.Errorf("create subscription: %w", err)
	}

	return true, nil
}

// ToggleLike removes the like edge for (target, user) when present and
// creates it otherwise. It reports the resulting state: true means liked.
// The created edge references exactly one target kind.
func (s *Service) ToggleLike(ctx context.Context, target models.LikeTarget, targetID, userID string) (bool, error) {
	if err := validateID(targetID, string(target)+" id"); err != nil {
		return false, err
	}

	if target == models.LikeTargetVideo {
		if _, err := s.Videos.FindByID(ctx, targetID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return false, fmt.Errorf("video: %w", repositories.ErrNotFound)
			}
			return false, fmt.Errorf("resolve video: %w", err)
		}
	}

	existing, err := s.Likes.Find(ctx, target, targetID, userID)
	switch {
	case err == nil:
		if err := s.Likes.Delete(ctx, existing.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return false, fmt.Errorf("remove like: %w", err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrNotFound):
		// fall through to create
	default:
		return false, fmt.Errorf("check like: %w", err)
	}

	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   userID,
		CreatedAt: time.Now().UTC(),
	}
	switch target {
	case models.LikeTargetVideo:
		like.VideoID = targetID
	case models.LikeTargetComment:
		like.CommentID = targetID
	case models.LikeTargetTweet:
		like.TweetID = targetID
	default:
		return false, fmt.Errorf("%w: unknown like target %q", ErrInvalidArgument, target)
	}

	if err := s.Likes.Create(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return true, nil
		}
		return false, fmt.Errorf("create like: %w", err)
	}

	return true, nil
}

// AddPlaylistVideo appends a video to a playlist. Adding a video that is
// already a member fails with ErrConflict.
func (s *Service) AddPlaylistVideo(ctx context.Context, playlistID, videoID string) error {
	if err := validateID(playlistID, "playlist id"); err != nil {
		return err
	}
	if err := validateID(videoID, "video id"); err != nil {
		return err
	}

	if _, err := s.Playlists.FindByID(ctx, playlistID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("playlist: %w", repositories.ErrNotFound)
		}
		return fmt.Errorf("resolve playlist: %w", err)
	}

	if _, err := s.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("video: %w", repositories.ErrNotFound)
		}
		return fmt.Errorf("resolve video: %w", err)
	}

	if err := s.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("video already in playlist: %w", repositories.ErrConflict)
		}
		return fmt.Errorf("add playlist video: %w", err)
	}

	return nil
}

// RemovePlaylistVideo removes a video from a playlist. Removing a video that
// is not a member, or from an empty playlist, fails with ErrNotFound.
func (s *Service) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string) error {
	if err := validateID(playlistID, "playlist id"); err != nil {
		return err
	}
	if err := validateID(videoID, "video id"); err != nil {
		return err
	}

	playlist, err := s.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("playlist: %w", repositories.ErrNotFound)
		}
		return fmt.Errorf("resolve playlist: %w", err)
	}

	if len(playlist.VideoIDs) == 0 {
		return fmt.Errorf("playlist has no videos: %w", repositories.ErrNotFound)
	}

	if err := s.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("video not in playlist: %w", repositories.ErrNotFound)
		}
		return fmt.Errorf("remove playlist video: %w", err)
	}

	return nil
}

func validateID(id, what string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed %s", ErrInvalidArgument, what)
	}
	return nil
}
