package progress

import (
	"context"
	"database/sql"
	"fmt"

	"animehub/pkg/models"
)

// MaxHistory is how many entries a user's watch history keeps.
const MaxHistory = 100

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Add records a watch. An existing entry for the same anime is replaced so
// the anime moves to the front; the oldest entries beyond MaxHistory are
// trimmed.
func (r *Repo) Add(ctx context.Context, entry models.WatchHistoryEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add history: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM watch_history WHERE user_id = ? AND anime_id = ?
	`, entry.UserID, entry.AnimeID); err != nil {
		return fmt.Errorf("clear history entry: %w", err)
	}

	var episode sql.NullInt64
	if entry.Episode != nil {
		episode = sql.NullInt64{Int64: int64(*entry.Episode), Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO watch_history (user_id, anime_id, episode, watched_at)
		VALUES (?, ?, ?, ?)
	`, entry.UserID, entry.AnimeID, episode, entry.WatchedAt); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM watch_history
		WHERE user_id = ? AND seq NOT IN (
			SELECT seq FROM watch_history WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		)
	`, entry.UserID, entry.UserID, MaxHistory); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add history: %w", err)
	}
	return nil
}

// List returns history newest first.
func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]models.WatchHistoryEntry, int, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM watch_history WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, anime_id, episode, watched_at
		FROM watch_history
		WHERE user_id = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := make([]models.WatchHistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e       models.WatchHistoryEntry
			episode sql.NullInt64
		)
		if err := rows.Scan(&e.UserID, &e.AnimeID, &episode, &e.WatchedAt); err != nil {
			return nil, 0, fmt.Errorf("scan history row: %w", err)
		}
		if episode.Valid {
			n := int(episode.Int64)
			e.Episode = &n
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}
