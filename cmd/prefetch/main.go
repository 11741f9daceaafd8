package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/logging"
	"animehub/pkg/database"
	"animehub/pkg/models"
)

func main() {
	var (
		limit   = flag.Int("limit", 25, "items per listing")
		idsFlag = flag.String("ids", "", "comma-separated anime ids to fetch in addition to the listings")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config load failed")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})
	log := logging.With("prefetch")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.Database.Path})
	defer db.Close()

	pipeline, _ := catalog.FromConfig(cfg)

	listings := []struct {
		name  string
		fetch func(context.Context) []models.CanonicalAnime
	}{
		{"top", func(ctx context.Context) []models.CanonicalAnime { return pipeline.ListTopRated(ctx, *limit) }},
		{"popular", func(ctx context.Context) []models.CanonicalAnime { return pipeline.ListMostPopular(ctx, *limit) }},
		{"season", pipeline.ListSeasonNow},
	}

	seen := make(map[int]bool)
	var all []models.CanonicalAnime
	add := func(items []models.CanonicalAnime) {
		for _, a := range items {
			if a.ID <= 0 || seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			all = append(all, a)
		}
	}

	for i, l := range listings {
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Hydrate.Delay):
			}
		}
		items := l.fetch(ctx)
		log.Info().Str("listing", l.name).Int("items", len(items)).Msg("fetched")
		add(items)
	}

	if ids := parseIDs(*idsFlag); len(ids) > 0 {
		items := catalog.Hydrate(ctx, pipeline.LookupByID, ids, catalog.HydrateFromConfig(cfg))
		log.Info().Int("requested", len(ids)).Int("found", len(items)).Msg("fetched by id")
		add(items)
	}

	if err := catalog.SaveSnapshots(ctx, db, all); err != nil {
		log.Fatal().Err(err).Msg("save failed")
	}
	log.Info().Int("saved", len(all)).Str("db", cfg.Database.Path).Msg("snapshots upserted")
}

func parseIDs(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
