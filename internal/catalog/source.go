// Package catalog aggregates anime metadata from the upstream catalogs.
//
// Adapters never return errors: every failure is logged and turned into an
// empty list or a not-found result. The Pipeline builds the use-case level
// operations (lookup with fallback, enrichment, listings) on top of them.
package catalog

import (
	"context"

	"animehub/pkg/models"
)

// Page is one page of a paginated primary catalog listing.
type Page struct {
	Items       []models.CanonicalAnime `json:"data"`
	HasNextPage bool                    `json:"has_next_page"`
}

// PrimaryCatalog is the rich REST catalog every listing goes through.
type PrimaryCatalog interface {
	SearchByName(ctx context.Context, term string) []models.CanonicalAnime
	SearchPage(ctx context.Context, term string, page int) Page
	GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool)
	ListTopRated(ctx context.Context, limit int) []models.CanonicalAnime
	ListMostPopular(ctx context.Context, limit int) []models.CanonicalAnime
	ListSeasonNow(ctx context.Context) []models.CanonicalAnime
	ListGenres(ctx context.Context) []models.NamedRef
	ListByGenreID(ctx context.Context, genreID, limit int) []models.CanonicalAnime
	Characters(ctx context.Context, id int) []models.Character
	Recommendations(ctx context.Context, id int) []models.Recommendation
}

// SecondaryCatalog is only consulted when the primary has no record.
type SecondaryCatalog interface {
	GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool)
}

// Localizer resolves records by free-text title in a third catalog.
type Localizer interface {
	FetchLocalizedSynopsis(ctx context.Context, title string) (string, bool)
	FetchSeriesBreakdown(ctx context.Context, title string) (models.SeriesBreakdown, bool)
}
