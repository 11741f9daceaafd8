package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"animehub/internal/httpx"
	"animehub/internal/logging"
	"animehub/pkg/models"
)

const (
	TMDBBase      = "https://api.themoviedb.org/3"
	tmdbStillBase = "https://image.tmdb.org/t/p/w185"
)

// TMDB is the localization adapter. Titles are matched by free-text search
// and the first result is taken as-is.
type TMDB struct {
	client   *httpx.Client
	guard    *guard
	apiKey   string
	language string
}

func NewTMDB(baseURL, apiKey, language string, timeout time.Duration) *TMDB {
	if baseURL == "" {
		baseURL = TMDBBase
	}
	if language == "" {
		language = "pt-BR"
	}
	if apiKey == "" {
		logging.Warn().Msg("[catalog] tmdb api key not set, localization disabled")
	}
	return &TMDB{
		client:   httpx.NewClient(baseURL, timeout),
		guard:    newGuard("tmdb"),
		apiKey:   apiKey,
		language: language,
	}
}

func (t *TMDB) Name() string { return "tmdb" }

func (t *TMDB) Enabled() bool { return t.apiKey != "" }

type tmdbSearch struct {
	Results []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"results"`
}

type tmdbDetail struct {
	ID               int    `json:"id"`
	Overview         string `json:"overview"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	OriginalName     string `json:"original_name"`
	Status           string `json:"status"`
	FirstAirDate     string `json:"first_air_date"`
	Seasons          []struct {
		Name         string `json:"name"`
		SeasonNumber int    `json:"season_number"`
	} `json:"seasons"`
}

type tmdbSeason struct {
	Episodes []struct {
		EpisodeNumber int    `json:"episode_number"`
		Name          string `json:"name"`
		StillPath     string `json:"still_path"`
	} `json:"episodes"`
}

func (t *TMDB) query(extra url.Values) url.Values {
	q := url.Values{
		"api_key":  {t.apiKey},
		"language": {t.language},
	}
	for k, v := range extra {
		q[k] = v
	}
	return q
}

// match resolves title to its best search hit and loads the detail record.
func (t *TMDB) match(ctx context.Context, title string) (tmdbDetail, bool) {
	if m := memoFrom(ctx); m != nil {
		return m.get(title, func() (tmdbDetail, bool) { return t.fetchMatch(ctx, title) })
	}
	return t.fetchMatch(ctx, title)
}

func (t *TMDB) fetchMatch(ctx context.Context, title string) (tmdbDetail, bool) {
	var search tmdbSearch
	err := t.guard.call(ctx, "search", func(ctx context.Context) error {
		return t.client.GetJSON(ctx, "/search/tv", t.query(url.Values{"query": {title}}), &search)
	})
	if err != nil || len(search.Results) == 0 {
		return tmdbDetail{}, false
	}

	var detail tmdbDetail
	id := search.Results[0].ID
	err = t.guard.call(ctx, "detail", func(ctx context.Context) error {
		return t.client.GetJSON(ctx, fmt.Sprintf("/tv/%d", id), t.query(nil), &detail)
	})
	if err != nil {
		return tmdbDetail{}, false
	}
	if detail.ID == 0 {
		detail.ID = id
	}
	return detail, true
}

func (t *TMDB) FetchLocalizedSynopsis(ctx context.Context, title string) (string, bool) {
	title = strings.TrimSpace(title)
	if !t.Enabled() || title == "" {
		return "", false
	}
	detail, ok := t.match(ctx, title)
	if !ok {
		return "", false
	}
	overview := strings.TrimSpace(detail.Overview)
	return overview, overview != ""
}

// FetchSeriesBreakdown loads every season's episode list, one request per
// season in order. Any failed request makes the whole breakdown absent.
func (t *TMDB) FetchSeriesBreakdown(ctx context.Context, title string) (models.SeriesBreakdown, bool) {
	title = strings.TrimSpace(title)
	if !t.Enabled() || title == "" {
		return models.SeriesBreakdown{}, false
	}
	detail, ok := t.match(ctx, title)
	if !ok {
		return models.SeriesBreakdown{}, false
	}

	seasons := make([]models.Season, 0, len(detail.Seasons))
	for _, s := range detail.Seasons {
		var resp tmdbSeason
		path := fmt.Sprintf("/tv/%d/season/%d", detail.ID, s.SeasonNumber)
		err := t.guard.call(ctx, "season", func(ctx context.Context) error {
			return t.client.GetJSON(ctx, path, t.query(nil), &resp)
		})
		if err != nil {
			return models.SeriesBreakdown{}, false
		}

		eps := make([]models.Episode, 0, len(resp.Episodes))
		for _, e := range resp.Episodes {
			ep := models.Episode{Number: e.EpisodeNumber, Name: e.Name}
			if e.StillPath != "" {
				ep.StillImageURL = tmdbStillBase + e.StillPath
			}
			eps = append(eps, ep)
		}
		seasons = append(seasons, models.Season{Name: s.Name, Number: s.SeasonNumber, Episodes: eps})
	}

	return models.SeriesBreakdown{
		Seasons:       seasons,
		TotalEpisodes: detail.NumberOfEpisodes,
		OriginalName:  detail.OriginalName,
		Status:        detail.Status,
		FirstAirDate:  detail.FirstAirDate,
	}, true
}

type memoKey struct{}

// titleMemo shares one title resolution between the operations of a single
// enrichment call.
type titleMemo struct {
	mu      sync.Mutex
	entries map[string]*memoEntry
}

type memoEntry struct {
	once   sync.Once
	detail tmdbDetail
	ok     bool
}

// WithTitleMemo returns a context under which localization lookups for the
// same title resolve the match only once.
func WithTitleMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &titleMemo{entries: map[string]*memoEntry{}})
}

func memoFrom(ctx context.Context) *titleMemo {
	m, _ := ctx.Value(memoKey{}).(*titleMemo)
	return m
}

func (m *titleMemo) get(title string, load func() (tmdbDetail, bool)) (tmdbDetail, bool) {
	m.mu.Lock()
	e, ok := m.entries[title]
	if !ok {
		e = &memoEntry{}
		m.entries[title] = e
	}
	m.mu.Unlock()

	e.once.Do(func() { e.detail, e.ok = load() })
	return e.detail, e.ok
}
