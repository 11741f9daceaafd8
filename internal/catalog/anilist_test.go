package catalog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAniListServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &req))
		assert.Contains(t, req.Query, "Media(id: $id, type: ANIME)")
		assert.EqualValues(t, 16498, req.Variables["id"])

		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAniListGetByIDNormalizes(t *testing.T) {
	srv := newAniListServer(t, http.StatusOK, `{"data":{"Media":{
		"id":16498,
		"title":{"romaji":"Shingeki no Kyojin","english":null,"native":"進撃の巨人"},
		"bannerImage":"banner.jpg",
		"description":"Several hundred years ago...",
		"episodes":25,
		"status":"FINISHED",
		"coverImage":{"large":"cover.jpg"},
		"averageScore":85,
		"genres":["Action","Drama"],
		"studios":{"nodes":[{"id":858,"name":"Wit Studio"}]}
	}}}`)

	a, ok := NewAniList(srv.URL, time.Second).GetByID(context.Background(), 16498)
	require.True(t, ok)

	assert.Equal(t, 16498, a.ID)
	assert.Equal(t, "Shingeki no Kyojin", a.Title)
	assert.Equal(t, "進撃の巨人", a.TitleNative)
	assert.Equal(t, "", a.TitleEnglish)
	require.NotNil(t, a.Score)
	assert.InDelta(t, 8.5, *a.Score, 1e-9)
	assert.Equal(t, "Several hundred years ago...", a.Synopsis)
	assert.Equal(t, "cover.jpg", a.Images.JPG.ImageURL)
	assert.Equal(t, "cover.jpg", a.Images.JPG.LargeImageURL)
	assert.Equal(t, "banner.jpg", a.BannerImage)
	assert.Equal(t, "FINISHED", a.Status)
	require.Len(t, a.Genres, 2)
	assert.Equal(t, 0, a.Genres[0].ID)
	assert.Equal(t, "Wit Studio", a.Studios[0].Name)
}

func TestAniListMissingCoverGetsPlaceholderImage(t *testing.T) {
	srv := newAniListServer(t, http.StatusOK, `{"data":{"Media":{"id":16498,"title":{"english":"Attack on Titan"},"coverImage":{}}}}`)

	a, ok := NewAniList(srv.URL, time.Second).GetByID(context.Background(), 16498)
	require.True(t, ok)
	assert.Equal(t, "Attack on Titan", a.Title)
	assert.Equal(t, "", a.Images.JPG.ImageURL)
	assert.Equal(t, UnknownStatus, a.Status)
	assert.Nil(t, a.Score)
}

func TestAniListErrorsAreNotFound(t *testing.T) {
	srv := newAniListServer(t, http.StatusNotFound, `{"errors":[{"message":"Not Found.","status":404}],"data":{"Media":null}}`)
	_, ok := NewAniList(srv.URL, time.Second).GetByID(context.Background(), 16498)
	assert.False(t, ok)

	srv = newAniListServer(t, http.StatusOK, `{"errors":[{"message":"Validation error"}],"data":null}`)
	_, ok = NewAniList(srv.URL, time.Second).GetByID(context.Background(), 16498)
	assert.False(t, ok)
}
