package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"animehub/internal/metrics"
	"animehub/pkg/models"
)

// Snapshot flattens a canonical record into the stored row shape.
func Snapshot(a models.CanonicalAnime) models.AnimeSnapshot {
	s := models.AnimeSnapshot{
		ID:       a.ID,
		Title:    a.Title,
		Genres:   make([]string, 0, len(a.Genres)),
		Status:   a.Status,
		Synopsis: a.Synopsis,
		ImageURL: a.Images.JPG.ImageURL,
	}
	for _, g := range a.Genres {
		s.Genres = append(s.Genres, g.Name)
	}
	if a.Episodes != nil {
		s.Episodes = *a.Episodes
	}
	if a.Score != nil {
		s.Score = *a.Score
	}
	if a.Year != nil {
		s.Year = *a.Year
	}
	return s
}

// SaveSnapshots upserts the given records into the `anime` table:
//
//	CREATE TABLE anime (
//	  id INTEGER PRIMARY KEY,
//	  title TEXT NOT NULL,
//	  genres TEXT, -- JSON array as text
//	  status TEXT,
//	  episodes INTEGER,
//	  score REAL,
//	  synopsis TEXT,
//	  image_url TEXT,
//	  year INTEGER,
//	  updated_at TEXT
//	);
func SaveSnapshots(ctx context.Context, db *sql.DB, animes []models.CanonicalAnime) error {
	if len(animes) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anime (id, title, genres, status, episodes, score, synopsis, image_url, year, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  title = excluded.title,
		  genres = excluded.genres,
		  status = excluded.status,
		  episodes = excluded.episodes,
		  score = excluded.score,
		  synopsis = excluded.synopsis,
		  image_url = excluded.image_url,
		  year = excluded.year,
		  updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, a := range animes {
		s := Snapshot(a)
		genresJSON, err := json.Marshal(s.Genres)
		if err != nil {
			return fmt.Errorf("marshal genres for %d: %w", s.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			s.ID, s.Title, string(genresJSON), s.Status, s.Episodes, s.Score,
			s.Synopsis, s.ImageURL, s.Year, now,
		); err != nil {
			return fmt.Errorf("exec upsert for %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	metrics.SnapshotsUpserted.Add(float64(len(animes)))
	return nil
}
