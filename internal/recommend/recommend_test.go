package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"animehub/pkg/models"
)

type stubSearch struct {
	terms   []string
	results map[string][]models.CanonicalAnime
}

func (s *stubSearch) SearchByName(ctx context.Context, term string) []models.CanonicalAnime {
	s.terms = append(s.terms, term)
	return s.results[term]
}

func animes(ids ...int) []models.CanonicalAnime {
	out := make([]models.CanonicalAnime, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.CanonicalAnime{ID: id})
	}
	return out
}

func noShuffle(int, func(i, j int)) {}

func TestForSearchesFirstThreeGenres(t *testing.T) {
	s := &stubSearch{results: map[string][]models.CanonicalAnime{
		"action":    animes(1, 2, 3, 4, 5),
		"adventure": animes(4, 6),
		"comedy":    animes(7),
	}}
	e := NewEngine(s)
	e.Shuffle = noShuffle

	out := e.For(context.Background(), models.User{ID: "u"})

	assert.Equal(t, []string{"action", "adventure", "comedy"}, s.terms)
	var got []int
	for _, a := range out {
		got = append(got, a.ID)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 6, 7}, got)
}

func TestForExcludesWatchlistAndFavorites(t *testing.T) {
	s := &stubSearch{results: map[string][]models.CanonicalAnime{
		"action": animes(1, 2, 3, 4),
	}}
	e := NewEngine(s)
	e.Shuffle = noShuffle

	out := e.For(context.Background(), models.User{Watchlist: []int{1}, Favorites: []int{3}})

	assert.Len(t, out, 2)
	assert.Equal(t, 2, out[0].ID)
	assert.Equal(t, 4, out[1].ID)
}

func TestForCapsAtTwelve(t *testing.T) {
	s := &stubSearch{results: map[string][]models.CanonicalAnime{
		"a": animes(1, 2, 3, 4), "b": animes(5, 6, 7, 8), "c": animes(9, 10, 11, 12), "d": animes(13),
	}}
	e := &Engine{Search: s, Genres: []string{"a", "b", "c", "d"}, Shuffle: noShuffle}

	assert.Len(t, e.For(context.Background(), models.User{}), 12)
	assert.NotContains(t, s.terms, "d")
}

func TestForUsesShuffle(t *testing.T) {
	s := &stubSearch{}
	e := NewEngine(s)
	e.Shuffle = func(n int, swap func(i, j int)) {
		// reverse
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	e.For(context.Background(), models.User{})
	assert.Equal(t, []string{"sci-fi", "thriller", "romance"}, s.terms)
}
