package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"animehub/internal/httpx"
	"animehub/pkg/models"
)

const AniListEndpoint = "https://graphql.anilist.co"

var ErrGraphQL = errors.New("graphql error")

const mediaQuery = `query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    title { romaji english native }
    bannerImage
    description(asHtml: false)
    episodes
    status
    coverImage { large }
    averageScore
    genres
    studios { nodes { id name } }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type aniListMedia struct {
	ID          int           `json:"id"`
	Title       TitleVariants `json:"title"`
	BannerImage string        `json:"bannerImage"`
	Description string        `json:"description"`
	Episodes    *int          `json:"episodes"`
	Status      string        `json:"status"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	AverageScore *float64 `json:"averageScore"`
	Genres       []string `json:"genres"`
	Studios      struct {
		Nodes []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
}

// AniList is the secondary catalog adapter. It only supports lookup by id.
type AniList struct {
	client *httpx.Client
	guard  *guard
}

func NewAniList(endpoint string, timeout time.Duration) *AniList {
	if endpoint == "" {
		endpoint = AniListEndpoint
	}
	return &AniList{
		client: httpx.NewClient(endpoint, timeout),
		guard:  newGuard("anilist"),
	}
}

func (a *AniList) Name() string { return "anilist" }

func (a *AniList) execute(ctx context.Context, query string, vars map[string]any, out any) error {
	var resp graphQLResponse
	if err := a.client.PostJSON(ctx, "", graphQLRequest{Query: query, Variables: vars}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errNoData
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

func (a *AniList) GetByID(ctx context.Context, id int) (models.CanonicalAnime, bool) {
	var data struct {
		Media *aniListMedia `json:"Media"`
	}
	err := a.guard.call(ctx, "get", func(ctx context.Context) error {
		if err := a.execute(ctx, mediaQuery, map[string]any{"id": id}, &data); err != nil {
			return err
		}
		if data.Media == nil {
			return errNoData
		}
		return nil
	})
	if err != nil {
		return models.CanonicalAnime{}, false
	}
	return Normalize(data.Media.raw()), true
}

// raw reshapes the GraphQL media object into the common raw record so the
// normalizer applies its title and score rules.
func (m *aniListMedia) raw() RawAnime {
	title := m.Title
	r := RawAnime{
		ID:           m.ID,
		Title:        TitleField{Variants: &title},
		Description:  m.Description,
		Episodes:     m.Episodes,
		Status:       m.Status,
		AverageScore: m.AverageScore,
		BannerImage:  m.BannerImage,
	}
	if m.CoverImage.Large != "" {
		r.Images = &models.Images{JPG: models.ImageSet{
			ImageURL:      m.CoverImage.Large,
			LargeImageURL: m.CoverImage.Large,
		}}
	}
	for _, g := range m.Genres {
		r.Genres = append(r.Genres, models.NamedRef{ID: 0, Name: g})
	}
	for _, s := range m.Studios.Nodes {
		r.Studios = append(r.Studios, models.NamedRef{ID: s.ID, Name: s.Name})
	}
	return r
}
