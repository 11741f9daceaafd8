package anime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"animehub/internal/catalog"
	"animehub/internal/logging"
	"animehub/pkg/models"
)

// Repo reads and writes the local snapshot table. The catalog pipeline never
// reads from it.
type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q      string   // keyword search in title
	Genres []string // any-match
	Status string
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Save(ctx context.Context, animes ...models.CanonicalAnime) error {
	return catalog.SaveSnapshots(ctx, r.DB, animes)
}

const snapshotColumns = `
	SELECT id, title, genres, status, episodes, score, synopsis, image_url, year, updated_at
	FROM anime`

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (models.AnimeSnapshot, error) {
	var (
		a          models.AnimeSnapshot
		genresJSON string
		status     sql.NullString
		episodes   sql.NullInt64
		score      sql.NullFloat64
		synopsis   sql.NullString
		imageURL   sql.NullString
		year       sql.NullInt64
		updatedAt  sql.NullString
	)
	if err := s.Scan(&a.ID, &a.Title, &genresJSON, &status, &episodes, &score, &synopsis, &imageURL, &year, &updatedAt); err != nil {
		return a, err
	}

	a.Status = status.String
	a.Episodes = int(episodes.Int64)
	a.Score = score.Float64
	a.Synopsis = synopsis.String
	a.ImageURL = imageURL.String
	a.Year = int(year.Int64)
	a.UpdatedAt = updatedAt.String

	if err := json.Unmarshal([]byte(genresJSON), &a.Genres); err != nil {
		logging.Warn().Err(err).Int("id", a.ID).Msg("[anime] bad genres json in snapshot row")
		a.Genres = nil
	}
	if a.Genres == nil {
		a.Genres = []string{}
	}
	return a, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*models.AnimeSnapshot, error) {
	a, err := scanSnapshot(r.DB.QueryRowContext(ctx, snapshotColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan getByID: %w", err)
	}
	return &a, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.AnimeSnapshot, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := []models.AnimeSnapshot{}
	for rows.Next() {
		a, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or SELECT list.
// Genres match "any" by LIKE against the stored JSON text.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	base := snapshotColumns
	if countOnly {
		base = `SELECT COUNT(*) FROM anime`
	}

	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}

	if st := strings.TrimSpace(q.Status); st != "" {
		where = append(where, "LOWER(status) = ?")
		args = append(args, strings.ToLower(st))
	}

	var genreOr []string
	for _, g := range q.Genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		genreOr = append(genreOr, "LOWER(genres) LIKE ?")
		args = append(args, `%"`+strings.ToLower(g)+`"%`)
	}
	if len(genreOr) > 0 {
		where = append(where, "("+strings.Join(genreOr, " OR ")+")")
	}

	sqlStr := base
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		limit, offset := clampPage(q.Limit, q.Offset)
		sqlStr += " ORDER BY title ASC LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return sqlStr, args
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
