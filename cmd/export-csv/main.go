package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"animehub/internal/anime"
	"animehub/internal/config"
	"animehub/internal/logging"
	"animehub/pkg/database"
)

func main() {
	var (
		animeOut     = flag.String("anime", "data/anime.csv", "output CSV path for anime snapshots")
		watchlistOut = flag.String("watchlist", "data/watchlist.csv", "output CSV path for watchlist rows")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})
	log := logging.With("export-csv")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()

	n, err := exportAnime(ctx, anime.NewRepo(db), *animeOut)
	if err != nil {
		log.Fatal().Err(err).Msg("export anime failed")
	}
	m, err := exportWatchlist(ctx, db, *watchlistOut)
	if err != nil {
		log.Fatal().Err(err).Msg("export watchlist failed")
	}

	log.Info().
		Int("anime", n).Str("anime_out", *animeOut).
		Int("watchlist", m).Str("watchlist_out", *watchlistOut).
		Msg("export complete")
}

func create(path string) (*os.File, *csv.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func exportAnime(ctx context.Context, repo *anime.Repo, outPath string) (int, error) {
	f, w, err := create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"id", "title", "genres", "status", "episodes", "score", "year", "synopsis", "image_url", "updated_at"}); err != nil {
		return 0, err
	}

	const page = 100
	total := 0
	for offset := 0; ; offset += page {
		items, err := repo.List(ctx, anime.ListQuery{Limit: page, Offset: offset})
		if err != nil {
			return total, err
		}
		for _, a := range items {
			genres, _ := json.Marshal(a.Genres)
			if err := w.Write([]string{
				strconv.Itoa(a.ID),
				a.Title,
				string(genres),
				a.Status,
				strconv.Itoa(a.Episodes),
				strconv.FormatFloat(a.Score, 'f', -1, 64),
				strconv.Itoa(a.Year),
				strings.ReplaceAll(a.Synopsis, "\n", " "),
				a.ImageURL,
				a.UpdatedAt,
			}); err != nil {
				return total, err
			}
		}
		total += len(items)
		if len(items) < page {
			break
		}
	}

	w.Flush()
	return total, w.Error()
}

func exportWatchlist(ctx context.Context, db *sql.DB, outPath string) (int, error) {
	f, w, err := create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := w.Write([]string{"user_id", "anime_id", "status", "updated_at"}); err != nil {
		return 0, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT user_id, anime_id, status, updated_at
		FROM watchlist
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var (
			userID    string
			animeID   int
			status    string
			updatedAt time.Time
		)
		if err := rows.Scan(&userID, &animeID, &status, &updatedAt); err != nil {
			return total, err
		}
		if err := w.Write([]string{
			userID,
			strconv.Itoa(animeID),
			status,
			updatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return total, err
		}
		total++
	}
	if err := rows.Err(); err != nil {
		return total, err
	}

	w.Flush()
	return total, w.Error()
}
