package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"animehub/internal/httpx"
	"animehub/pkg/models"
)

const JikanBase = "https://api.jikan.moe/v4"

var errNoData = errors.New("response has no data")

// Jikan is the primary catalog adapter.
type Jikan struct {
	client *httpx.Client
	guard  *guard
	// Intn picks avatar pages and characters; defaults to math/rand.
	Intn func(n int) int
}

func NewJikan(baseURL string, timeout time.Duration) *Jikan {
	if baseURL == "" {
		baseURL = JikanBase
	}
	return &Jikan{
		client: httpx.NewClient(baseURL, timeout),
		guard:  newGuard("jikan"),
		Intn:   rand.IntN,
	}
}

func (j *Jikan) Name() string { return "jikan" }

// Throttle keeps the adapter under the public API's request rate.
func (j *Jikan) Throttle(perSecond float64) { j.client.Throttle(perSecond) }

type jikanPagination struct {
	HasNextPage bool `json:"has_next_page"`
}

type jikanList struct {
	Data       []RawAnime      `json:"data"`
	Pagination jikanPagination `json:"pagination"`
}

type jikanOne struct {
	Data *RawAnime `json:"data"`
}

type jikanGenres struct {
	Data []models.NamedRef `json:"data"`
}

type jikanImage struct {
	JPG struct {
		ImageURL string `json:"image_url"`
	} `json:"jpg"`
}

type jikanCharacters struct {
	Data []struct {
		Character struct {
			ID     int        `json:"mal_id"`
			Name   string     `json:"name"`
			Images jikanImage `json:"images"`
		} `json:"character"`
		Role string `json:"role"`
	} `json:"data"`
}

type jikanRecommendations struct {
	Data []struct {
		Entry struct {
			ID     int        `json:"mal_id"`
			Title  string     `json:"title"`
			Images jikanImage `json:"images"`
		} `json:"entry"`
		Votes int `json:"votes"`
	} `json:"data"`
}

type jikanCharacterPage struct {
	Data []struct {
		Images jikanImage `json:"images"`
	} `json:"data"`
}

func (j *Jikan) list(ctx context.Context, op, path string, q url.Values) ([]models.CanonicalAnime, bool) {
	var resp jikanList
	err := j.guard.call(ctx, op, func(ctx context.Context) error {
		return j.client.GetJSON(ctx, path, q, &resp)
	})
	if err != nil {
		return []models.CanonicalAnime{}, false
	}
	return NormalizeAll(resp.Data), resp.Pagination.HasNextPage
}

func (j *Jikan) SearchByName(ctx context.Context, term string) []models.CanonicalAnime {
	items, _ := j.list(ctx, "search", "/anime", url.Values{
		"q":        {strings.TrimSpace(term)},
		"order_by": {"popularity"},
	})
	return items
}

func (j *Jikan) SearchPage(ctx context.Context, term string, page int) Page {
	if page < 1 {
		page = 1
	}
	items, next := j.list(ctx, "search_page", "/anime", url.Values{
		"q":        {strings.TrimSpace(term)},
		"order_by": {"popularity"},
		"page":     {strconv.Itoa(page)},
	})
	return Page{Items: items, HasNextPage: next}
}

func (j *Jikan) GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool) {
	var resp jikanOne
	err := j.guard.call(ctx, "get", func(ctx context.Context) error {
		if err := j.client.GetJSON(ctx, fmt.Sprintf("/anime/%d", id), nil, &resp); err != nil {
			return err
		}
		if resp.Data == nil {
			return errNoData
		}
		return nil
	})
	if err != nil {
		return models.CanonicalAnime{}, false
	}
	return Normalize(*resp.Data), true
}

func (j *Jikan) ListTopRated(ctx context.Context, limit int) []models.CanonicalAnime {
	items, _ := j.list(ctx, "top", "/top/anime", url.Values{"limit": {strconv.Itoa(limit)}})
	return items
}

func (j *Jikan) ListMostPopular(ctx context.Context, limit int) []models.CanonicalAnime {
	items, _ := j.list(ctx, "popular", "/top/anime", url.Values{
		"filter": {"bypopularity"},
		"limit":  {strconv.Itoa(limit)},
	})
	return items
}

func (j *Jikan) ListSeasonNow(ctx context.Context) []models.CanonicalAnime {
	items, _ := j.list(ctx, "season_now", "/seasons/now", nil)
	return items
}

func (j *Jikan) ListGenres(ctx context.Context) []models.NamedRef {
	var resp jikanGenres
	err := j.guard.call(ctx, "genres", func(ctx context.Context) error {
		return j.client.GetJSON(ctx, "/genres/anime", nil, &resp)
	})
	if err != nil || resp.Data == nil {
		return []models.NamedRef{}
	}
	return resp.Data
}

func (j *Jikan) ListByGenreID(ctx context.Context, genreID, limit int) []models.CanonicalAnime {
	items, _ := j.list(ctx, "by_genre", "/anime", url.Values{
		"genres": {strconv.Itoa(genreID)},
		"limit":  {strconv.Itoa(limit)},
	})
	return items
}

func (j *Jikan) Characters(ctx context.Context, id int) []models.Character {
	var resp jikanCharacters
	err := j.guard.call(ctx, "characters", func(ctx context.Context) error {
		return j.client.GetJSON(ctx, fmt.Sprintf("/anime/%d/characters", id), nil, &resp)
	})
	out := []models.Character{}
	if err != nil {
		return out
	}
	for _, c := range resp.Data {
		out = append(out, models.Character{
			ID:       c.Character.ID,
			Name:     c.Character.Name,
			ImageURL: c.Character.Images.JPG.ImageURL,
			Role:     c.Role,
		})
	}
	return out
}

func (j *Jikan) Recommendations(ctx context.Context, id int) []models.Recommendation {
	var resp jikanRecommendations
	err := j.guard.call(ctx, "recommendations", func(ctx context.Context) error {
		return j.client.GetJSON(ctx, fmt.Sprintf("/anime/%d/recommendations", id), nil, &resp)
	})
	out := []models.Recommendation{}
	if err != nil {
		return out
	}
	for _, r := range resp.Data {
		out = append(out, models.Recommendation{
			ID:       r.Entry.ID,
			Title:    r.Entry.Title,
			ImageURL: r.Entry.Images.JPG.ImageURL,
			Votes:    r.Votes,
		})
	}
	return out
}

// RandomAvatar picks a character image from one of the first ten character
// pages.
func (j *Jikan) RandomAvatar(ctx context.Context) (string, bool) {
	page := j.Intn(10) + 1
	var resp jikanCharacterPage
	err := j.guard.call(ctx, "avatar", func(ctx context.Context) error {
		return j.client.GetJSON(ctx, "/characters", url.Values{"page": {strconv.Itoa(page)}}, &resp)
	})
	if err != nil || len(resp.Data) == 0 {
		return "", false
	}
	u := resp.Data[j.Intn(len(resp.Data))].Images.JPG.ImageURL
	return u, u != ""
}
