package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"animehub/pkg/models"
)

// fakePrimary records how often each operation was called.
type fakePrimary struct {
	mu     sync.Mutex
	calls  map[string]int
	byID   map[int]models.CanonicalAnime
	genres []models.NamedRef
	lists  map[int][]models.CanonicalAnime
	search []models.CanonicalAnime
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{
		calls: map[string]int{},
		byID:  map[int]models.CanonicalAnime{},
		lists: map[int][]models.CanonicalAnime{},
	}
}

func (f *fakePrimary) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakePrimary) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakePrimary) SearchByName(ctx context.Context, term string) []models.CanonicalAnime {
	f.hit("search")
	return f.search
}

func (f *fakePrimary) SearchPage(ctx context.Context, term string, page int) Page {
	f.hit("search_page")
	return Page{Items: f.search, HasNextPage: page < 2}
}

func (f *fakePrimary) GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool) {
	f.hit("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	return a, ok
}

func (f *fakePrimary) ListTopRated(ctx context.Context, limit int) []models.CanonicalAnime {
	f.hit("top")
	return nil
}

func (f *fakePrimary) ListMostPopular(ctx context.Context, limit int) []models.CanonicalAnime {
	f.hit("popular")
	return nil
}

func (f *fakePrimary) ListSeasonNow(ctx context.Context) []models.CanonicalAnime {
	f.hit("season_now")
	return nil
}

func (f *fakePrimary) ListGenres(ctx context.Context) []models.NamedRef {
	f.hit("genres")
	return f.genres
}

func (f *fakePrimary) ListByGenreID(ctx context.Context, genreID, limit int) []models.CanonicalAnime {
	f.hit("by_genre")
	return f.lists[genreID]
}

func (f *fakePrimary) Characters(ctx context.Context, id int) []models.Character {
	f.hit("characters")
	return nil
}

func (f *fakePrimary) Recommendations(ctx context.Context, id int) []models.Recommendation {
	f.hit("recommendations")
	return nil
}

type fakeSecondary struct {
	calls atomic.Int32
	byID  map[int]models.CanonicalAnime
}

func (f *fakeSecondary) GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool) {
	f.calls.Add(1)
	a, ok := f.byID[id]
	return a, ok
}

// fakeLocalizer lets each member be scripted independently, including
// panicking to simulate a rejected call.
type fakeLocalizer struct {
	synopsis      func(title string) (string, bool)
	breakdown     func(title string) (models.SeriesBreakdown, bool)
	synopsisCalls atomic.Int32
	breakCalls    atomic.Int32
	lastTitle     atomic.Value
}

func (f *fakeLocalizer) FetchLocalizedSynopsis(ctx context.Context, title string) (string, bool) {
	f.synopsisCalls.Add(1)
	f.lastTitle.Store(title)
	if f.synopsis == nil {
		return "", false
	}
	return f.synopsis(title)
}

func (f *fakeLocalizer) FetchSeriesBreakdown(ctx context.Context, title string) (models.SeriesBreakdown, bool) {
	f.breakCalls.Add(1)
	if f.breakdown == nil {
		return models.SeriesBreakdown{}, false
	}
	return f.breakdown(title)
}

func testAOT() models.CanonicalAnime {
	return models.CanonicalAnime{ID: 16498, Title: "Shingeki no Kyojin", TitleEnglish: "Attack on Titan", Synopsis: "en"}
}
