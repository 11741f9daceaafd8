package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"animehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRating(ctx context.Context, db execer, userID string, animeID, rating int, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ratings (user_id, anime_id, rating, rated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, anime_id) DO UPDATE SET
			rating = excluded.rating,
			rated_at = excluded.rated_at
	`, userID, animeID, rating, at)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// Rate sets the user's rating for an anime, replacing any earlier one.
func (r *Repo) Rate(ctx context.Context, userID string, animeID, rating int) (*models.Rating, error) {
	now := time.Now().UTC()
	if err := upsertRating(ctx, r.DB, userID, animeID, rating, now); err != nil {
		return nil, err
	}
	return &models.Rating{UserID: userID, AnimeID: animeID, Rating: rating, RatedAt: now}, nil
}

func (r *Repo) Ratings(ctx context.Context, userID string) ([]models.Rating, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, anime_id, rating, rated_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY rated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := []models.Rating{}
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.UserID, &rt.AnimeID, &rt.Rating, &rt.RatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// AddComment stores a comment. A rating on the comment also becomes the
// user's rating for that anime.
func (r *Repo) AddComment(ctx context.Context, userID string, animeID int, text string, rating *int) (*models.Comment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add comment: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	id := uuid.NewString()

	var ratingVal sql.NullInt64
	if rating != nil {
		ratingVal = sql.NullInt64{Int64: int64(*rating), Valid: true}
		if err := upsertRating(ctx, tx, userID, animeID, *rating, now); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO comments (id, anime_id, user_id, text, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, animeID, userID, text, ratingVal, now); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add comment: %w", err)
	}
	return r.GetComment(ctx, id)
}

const commentColumns = `
	SELECT c.id, c.anime_id, c.user_id, u.username, c.text, c.rating, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.user_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (models.Comment, error) {
	var (
		cm     models.Comment
		rating sql.NullInt64
	)
	if err := s.Scan(&cm.ID, &cm.AnimeID, &cm.UserID, &cm.UserName, &cm.Text, &rating, &cm.CreatedAt); err != nil {
		return cm, err
	}
	if rating.Valid {
		n := int(rating.Int64)
		cm.Rating = &n
	}
	return cm, nil
}

func (r *Repo) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	cm, err := scanComment(r.DB.QueryRowContext(ctx, commentColumns+` WHERE c.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &cm, nil
}

// CommentsByAnime lists comments newest first.
func (r *Repo) CommentsByAnime(ctx context.Context, animeID, limit, offset int) ([]models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, commentColumns+`
		WHERE c.anime_id = ?
		ORDER BY c.created_at DESC
		LIMIT ? OFFSET ?
	`, animeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0, limit)
	for rows.Next() {
		cm, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// DeleteComment removes a comment only if userID wrote it.
func (r *Repo) DeleteComment(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM comments
		WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
