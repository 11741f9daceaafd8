package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tmdbStub struct {
	mu       sync.Mutex
	hits     map[string]int
	failPath string
	overview string
	queries  []string
}

func (s *tmdbStub) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *tmdbStub) searched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func newTMDBServer(t *testing.T, stub *tmdbStub) *httptest.Server {
	t.Helper()
	stub.hits = map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.hits[r.URL.Path]++
		if q := r.URL.Query().Get("query"); q != "" {
			stub.queries = append(stub.queries, q)
		}
		stub.mu.Unlock()

		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		assert.Equal(t, "pt-BR", r.URL.Query().Get("language"))

		if r.URL.Path == stub.failPath {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch r.URL.Path {
		case "/search/tv":
			if r.URL.Query().Get("query") == "Nothing Matches" {
				_, _ = io.WriteString(w, `{"results":[]}`)
				return
			}
			_, _ = io.WriteString(w, `{"results":[{"id":1429,"name":"Ataque dos Titãs"},{"id":99,"name":"Other"}]}`)
		case "/tv/1429":
			_, _ = io.WriteString(w, `{"id":1429,"overview":"`+stub.overview+`","number_of_episodes":3,
				"original_name":"進撃の巨人","status":"Ended","first_air_date":"2013-04-07",
				"seasons":[{"name":"Temporada 1","season_number":1},{"name":"Temporada 2","season_number":2}]}`)
		case "/tv/1429/season/1":
			_, _ = io.WriteString(w, `{"episodes":[{"episode_number":1,"name":"A Você","still_path":"/a.jpg"},{"episode_number":2,"name":"Naquele Dia","still_path":null}]}`)
		case "/tv/1429/season/2":
			_, _ = io.WriteString(w, `{"episodes":[{"episode_number":1,"name":"Besta","still_path":"/b.jpg"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTMDBLocalizedSynopsis(t *testing.T) {
	stub := &tmdbStub{overview: "  Há mais de cem anos...  "}
	srv := newTMDBServer(t, stub)
	tm := NewTMDB(srv.URL, "k", "", time.Second)

	s, ok := tm.FetchLocalizedSynopsis(context.Background(), "Attack on Titan")
	require.True(t, ok)
	assert.Equal(t, "Há mais de cem anos...", s)

	_, ok = tm.FetchLocalizedSynopsis(context.Background(), "Nothing Matches")
	assert.False(t, ok)
}

func TestTMDBBlankOverviewIsAbsent(t *testing.T) {
	stub := &tmdbStub{overview: "   "}
	srv := newTMDBServer(t, stub)

	_, ok := NewTMDB(srv.URL, "k", "pt-BR", time.Second).FetchLocalizedSynopsis(context.Background(), "Attack on Titan")
	assert.False(t, ok)
}

func TestTMDBSeriesBreakdown(t *testing.T) {
	stub := &tmdbStub{}
	srv := newTMDBServer(t, stub)

	b, ok := NewTMDB(srv.URL, "k", "pt-BR", time.Second).FetchSeriesBreakdown(context.Background(), "Attack on Titan")
	require.True(t, ok)

	assert.Equal(t, 3, b.TotalEpisodes)
	assert.Equal(t, "進撃の巨人", b.OriginalName)
	assert.Equal(t, "Ended", b.Status)
	assert.Equal(t, "2013-04-07", b.FirstAirDate)
	require.Len(t, b.Seasons, 2)
	assert.Equal(t, "Temporada 1", b.Seasons[0].Name)
	assert.Equal(t, tmdbStillBase+"/a.jpg", b.Seasons[0].Episodes[0].StillImageURL)
	assert.Equal(t, "", b.Seasons[0].Episodes[1].StillImageURL)
	assert.Equal(t, 2, b.Seasons[1].Number)
}

func TestTMDBSeasonFailureMakesBreakdownAbsent(t *testing.T) {
	stub := &tmdbStub{failPath: "/tv/1429/season/2"}
	srv := newTMDBServer(t, stub)

	_, ok := NewTMDB(srv.URL, "k", "pt-BR", time.Second).FetchSeriesBreakdown(context.Background(), "Attack on Titan")
	assert.False(t, ok)
	assert.Equal(t, 1, stub.count("/tv/1429/season/1"))
}

func TestTMDBResolvesTitleIndependently(t *testing.T) {
	stub := &tmdbStub{overview: "x"}
	srv := newTMDBServer(t, stub)
	tm := NewTMDB(srv.URL, "k", "pt-BR", time.Second)

	p := NewPipeline(newFakePrimary(), nil, tm)
	out := p.DetailEnrichment(context.Background(), testAOT())

	assert.Equal(t, "x", out.Anime.Synopsis)
	require.NotNil(t, out.Breakdown)
	assert.Equal(t, 2, stub.count("/search/tv"))
	assert.Equal(t, 2, stub.count("/tv/1429"))
	assert.Equal(t, []string{"Shingeki no Kyojin", "Shingeki no Kyojin"}, stub.searched())
}

func TestTMDBSharedTitleMatch(t *testing.T) {
	stub := &tmdbStub{overview: "x"}
	srv := newTMDBServer(t, stub)
	tm := NewTMDB(srv.URL, "k", "pt-BR", time.Second)

	p := NewPipeline(newFakePrimary(), nil, tm)
	p.ShareTitleMatch = true
	out := p.DetailEnrichment(context.Background(), testAOT())

	assert.Equal(t, "x", out.Anime.Synopsis)
	require.NotNil(t, out.Breakdown)
	assert.Equal(t, 1, stub.count("/search/tv"))
	assert.Equal(t, 1, stub.count("/tv/1429"))
}

func TestTMDBDisabledWithoutKey(t *testing.T) {
	stub := &tmdbStub{}
	srv := newTMDBServer(t, stub)
	tm := NewTMDB(srv.URL, "", "pt-BR", time.Second)

	_, ok := tm.FetchLocalizedSynopsis(context.Background(), "Attack on Titan")
	assert.False(t, ok)
	_, ok = tm.FetchSeriesBreakdown(context.Background(), "Attack on Titan")
	assert.False(t, ok)
	assert.Equal(t, 0, stub.count("/search/tv"))
}
