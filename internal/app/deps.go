package app

import (
	"context"
	"fmt"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/config"
	"github.com/viewtube/backend/internal/db"
	"github.com/viewtube/backend/internal/graph"
	"github.com/viewtube/backend/internal/handlers"
	"github.com/viewtube/backend/internal/middleware"
	"github.com/viewtube/backend/internal/repositories"
	"github.com/viewtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	history := repositories.NewPostgresWatchHistoryRepository(pool)

	signer := auth.NewTokenSigner(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)
	sessions := auth.NewManager(signer, users)

	media, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media store: %w", err)
	}

	return handlers.Dependencies{
		Users:     users,
		Sessions:  sessions,
		Videos:    videos,
		Comments:  comments,
		Tweets:    tweets,
		Playlists: playlists,
		Graph: &graph.Service{
			Users:         users,
			Videos:        videos,
			Subscriptions: subscriptions,
			Likes:         likes,
			Playlists:     playlists,
		},
		Queries: graph.NewEngine(pool),
		History: history,
		Media:   media,
		Guard:   middleware.SessionGuard{Verifier: sessions, Users: users},
	}, nil
}
