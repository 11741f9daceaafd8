package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"animehub/internal/logging"
	"animehub/pkg/models"
)

// Pipeline owns the fallback and enrichment policy across the catalogs.
// It holds no mutable state; every call is independent.
type Pipeline struct {
	Primary   PrimaryCatalog
	Secondary SecondaryCatalog
	Localizer Localizer

	// ShareTitleMatch lets both enrichment lookups reuse one title search.
	ShareTitleMatch bool
}

func NewPipeline(primary PrimaryCatalog, secondary SecondaryCatalog, localizer Localizer) *Pipeline {
	return &Pipeline{Primary: primary, Secondary: secondary, Localizer: localizer}
}

// LookupByID tries the primary catalog, then the secondary. The first hit
// wins as-is; records are never merged.
func (p *Pipeline) LookupByID(ctx context.Context, id int) (models.CanonicalAnime, bool) {
	if id <= 0 {
		return models.CanonicalAnime{}, false
	}
	if a, ok := p.Primary.GetByID(ctx, id); ok {
		return a, true
	}
	if p.Secondary == nil {
		return models.CanonicalAnime{}, false
	}
	logging.Ctx(ctx).Debug().Int("id", id).Msg("[catalog] primary miss, trying secondary")
	return p.Secondary.GetByID(ctx, id)
}

// DetailEnrichment runs both localization lookups concurrently. A localized
// synopsis replaces the existing one; a breakdown is attached alongside.
// Either lookup failing only leaves its own part empty.
func (p *Pipeline) DetailEnrichment(ctx context.Context, anime models.CanonicalAnime) models.EnrichedAnime {
	out := models.EnrichedAnime{
		Anime:               anime,
		PlaceholderEpisodes: placeholderEpisodes(anime.Episodes),
	}
	if p.Localizer == nil {
		return out
	}

	title := anime.DisplayTitle()
	if title == "" {
		return out
	}
	if p.ShareTitleMatch {
		ctx = WithTitleMemo(ctx)
	}

	var (
		synopsis  string
		hasSyn    bool
		breakdown models.SeriesBreakdown
		hasBreak  bool
		g         errgroup.Group
	)

	g.Go(func() error {
		return quietly(ctx, "synopsis", func() {
			synopsis, hasSyn = p.Localizer.FetchLocalizedSynopsis(ctx, title)
		})
	})
	g.Go(func() error {
		return quietly(ctx, "breakdown", func() {
			breakdown, hasBreak = p.Localizer.FetchSeriesBreakdown(ctx, title)
		})
	})
	_ = g.Wait()

	if s := strings.TrimSpace(synopsis); hasSyn && s != "" {
		out.Anime.Synopsis = s
	}
	if hasBreak {
		b := breakdown
		out.Breakdown = &b
	}
	return out
}

// quietly runs fn and turns a panic into a logged no-op so one join member
// cannot take down its sibling. It always returns nil.
func quietly(ctx context.Context, member string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Warn().Str("member", member).Str("panic", fmt.Sprint(r)).
				Msg("[catalog] enrichment member failed")
		}
	}()
	fn()
	return nil
}

func placeholderEpisodes(episodes *int) []models.Episode {
	if episodes == nil || *episodes <= 0 {
		return nil
	}
	out := make([]models.Episode, 0, *episodes)
	for n := 1; n <= *episodes; n++ {
		out = append(out, models.Episode{Number: n, Name: fmt.Sprintf("Episode %d", n)})
	}
	return out
}

func (p *Pipeline) SearchByName(ctx context.Context, term string) []models.CanonicalAnime {
	term = strings.TrimSpace(term)
	if term == "" {
		return []models.CanonicalAnime{}
	}
	return p.Primary.SearchByName(ctx, term)
}

// SearchPage is the paginated search used for "load more".
func (p *Pipeline) SearchPage(ctx context.Context, term string, page int) Page {
	term = strings.TrimSpace(term)
	if term == "" {
		return Page{Items: []models.CanonicalAnime{}}
	}
	return p.Primary.SearchPage(ctx, term, page)
}

func (p *Pipeline) ListTopRated(ctx context.Context, limit int) []models.CanonicalAnime {
	return p.Primary.ListTopRated(ctx, limit)
}

func (p *Pipeline) ListMostPopular(ctx context.Context, limit int) []models.CanonicalAnime {
	return p.Primary.ListMostPopular(ctx, limit)
}

func (p *Pipeline) ListSeasonNow(ctx context.Context) []models.CanonicalAnime {
	return p.Primary.ListSeasonNow(ctx)
}

func (p *Pipeline) ListGenres(ctx context.Context) []models.NamedRef {
	return p.Primary.ListGenres(ctx)
}

// ListByGenre resolves name against the genre list (case-insensitive, exact)
// and lists that genre. An unknown name yields an empty list and no listing
// request.
func (p *Pipeline) ListByGenre(ctx context.Context, name string, limit int) []models.CanonicalAnime {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.CanonicalAnime{}
	}
	for _, g := range p.Primary.ListGenres(ctx) {
		if strings.EqualFold(g.Name, name) {
			return p.Primary.ListByGenreID(ctx, g.ID, limit)
		}
	}
	return []models.CanonicalAnime{}
}

func (p *Pipeline) Characters(ctx context.Context, id int) []models.Character {
	if id <= 0 {
		return []models.Character{}
	}
	return p.Primary.Characters(ctx, id)
}

func (p *Pipeline) Recommendations(ctx context.Context, id int) []models.Recommendation {
	if id <= 0 {
		return []models.Recommendation{}
	}
	return p.Primary.Recommendations(ctx, id)
}
