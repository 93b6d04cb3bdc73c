package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/viewtube/backend/internal/db"
)

// PostgresWatchHistoryRepository persists viewer-to-video watch edges.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a watch history repository.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Record notes that the user watched the video. Re-watching bumps the edge's
// watched_at instead of inserting a second row.
func (r *PostgresWatchHistoryRepository) Record(ctx context.Context, userID, videoID string, watchedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, watchedAt)
	if err != nil {
		return fmt.Errorf("insert watch history: %w", err)
	}

	return nil
}

var _ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
