// Package recommend builds the randomized "you might like" list for a user.
package recommend

import (
	"context"
	"math/rand/v2"

	"animehub/pkg/models"
)

var DefaultGenres = []string{"action", "adventure", "comedy", "drama", "fantasy", "romance", "thriller", "sci-fi"}

const (
	sampledGenres  = 5
	searchedGenres = 3
	perGenre       = 4
	maxResults     = 12
)

type Searcher interface {
	SearchByName(ctx context.Context, term string) []models.CanonicalAnime
}

type Engine struct {
	Search  Searcher
	Genres  []string
	Shuffle func(n int, swap func(i, j int))
}

func NewEngine(s Searcher) *Engine {
	return &Engine{Search: s, Genres: DefaultGenres, Shuffle: rand.Shuffle}
}

// For samples a few genres, searches the first ones and returns up to twelve
// titles the user has neither on the watchlist nor in favorites.
func (e *Engine) For(ctx context.Context, user models.User) []models.CanonicalAnime {
	genres := append([]string(nil), e.Genres...)
	e.Shuffle(len(genres), func(i, j int) { genres[i], genres[j] = genres[j], genres[i] })
	if len(genres) > sampledGenres {
		genres = genres[:sampledGenres]
	}
	if len(genres) > searchedGenres {
		genres = genres[:searchedGenres]
	}

	out := make([]models.CanonicalAnime, 0, maxResults)
	seen := map[int]bool{}
	for _, g := range genres {
		results := e.Search.SearchByName(ctx, g)
		if len(results) > perGenre {
			results = results[:perGenre]
		}
		for _, a := range results {
			if seen[a.ID] || user.Excludes(a.ID) {
				continue
			}
			seen[a.ID] = true
			out = append(out, a)
			if len(out) == maxResults {
				return out
			}
		}
	}
	return out
}
