package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"animehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Upsert inserts or updates a watchlist entry.
func (r *Repo) Upsert(ctx context.Context, item models.LibraryItem) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, anime_id, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, anime_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, item.UserID, item.AnimeID, item.Status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert watchlist item: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, userID string, animeID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM watchlist
		WHERE user_id = ? AND anime_id = ?
	`, userID, animeID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context, userID string, status string, limit, offset int) ([]models.LibraryItem, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := "WHERE user_id = ?"
	args := []any{userID}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchlist `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watchlist: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, anime_id, status, updated_at
		FROM watchlist `+where+`
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	out := make([]models.LibraryItem, 0, limit)
	for rows.Next() {
		var it models.LibraryItem
		if err := rows.Scan(&it.UserID, &it.AnimeID, &it.Status, &it.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan watchlist row: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}

	return out, total, nil
}

func (r *Repo) Get(ctx context.Context, userID string, animeID int) (*models.LibraryItem, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, anime_id, status, updated_at
		FROM watchlist
		WHERE user_id = ? AND anime_id = ?
	`, userID, animeID)

	var it models.LibraryItem
	if err := row.Scan(&it.UserID, &it.AnimeID, &it.Status, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get watchlist item: %w", err)
	}
	return &it, nil
}

// WatchlistIDs returns every anime id on the user's watchlist, most
// recently touched first.
func (r *Repo) WatchlistIDs(ctx context.Context, userID string) ([]int, error) {
	return r.ids(ctx, `SELECT anime_id FROM watchlist WHERE user_id = ? ORDER BY updated_at DESC`, userID)
}

func (r *Repo) AddFavorite(ctx context.Context, userID string, animeID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO favorites (user_id, anime_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, anime_id) DO NOTHING
	`, userID, animeID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID string, animeID int) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM favorites
		WHERE user_id = ? AND anime_id = ?
	`, userID, animeID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) Favorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, anime_id, added_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.AnimeID, &f.AddedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) FavoriteIDs(ctx context.Context, userID string) ([]int, error) {
	return r.ids(ctx, `SELECT anime_id FROM favorites WHERE user_id = ? ORDER BY added_at DESC`, userID)
}

func (r *Repo) ids(ctx context.Context, query string, userID string) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
