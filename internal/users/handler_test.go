package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animehub/internal/auth"
	"animehub/internal/library"
	"animehub/internal/progress"
	"animehub/internal/recommend"
	"animehub/internal/reviews"
	"animehub/pkg/database"
	"animehub/pkg/models"
)

type genreSearch struct{}

func (genreSearch) SearchByName(ctx context.Context, term string) []models.CanonicalAnime {
	return []models.CanonicalAnime{{ID: 1, Title: "Cowboy Bebop"}, {ID: 2, Title: "Trigun"}}
}

func setup(t *testing.T) (*gin.Engine, *Profiles) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenAndMigrate(database.Config{Path: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := &Profiles{
		Auth:     auth.NewRepo(db),
		Library:  library.NewRepo(db),
		Progress: progress.NewRepo(db),
		Reviews:  reviews.NewRepo(db),
	}
	require.NoError(t, p.Auth.CreateUser(context.Background(), auth.User{
		ID: "u1", Username: "faye", Email: "faye@bebop.io", PasswordHash: "x",
	}))

	engine := recommend.NewEngine(genreSearch{})
	h := NewHandler(p, engine)

	r := gin.New()
	h.RegisterRoutes(r.Group("/users", func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: id})
		}
	}))
	return r, p
}

func get(r http.Handler, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Test-User", userID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMeAssemblesProfile(t *testing.T) {
	r, p := setup(t)
	ctx := context.Background()

	require.NoError(t, p.Library.Upsert(ctx, models.LibraryItem{UserID: "u1", AnimeID: 1, Status: "watching"}))
	_, err := p.Library.AddFavorite(ctx, "u1", 5)
	require.NoError(t, err)
	require.NoError(t, p.Progress.Add(ctx, models.WatchHistoryEntry{UserID: "u1", AnimeID: 1, WatchedAt: time.Now().UTC()}))
	_, err = p.Reviews.Rate(ctx, "u1", 1, 9)
	require.NoError(t, err)

	w := get(r, "/users/me", "u1")
	require.Equal(t, http.StatusOK, w.Code)

	var u models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, "faye", u.Name)
	assert.Equal(t, []int{1}, u.Watchlist)
	assert.Equal(t, []int{5}, u.Favorites)
	require.Len(t, u.WatchHistory, 1)
	require.Len(t, u.Ratings, 1)
	assert.Equal(t, 9, u.Ratings[0].Rating)
}

func TestMeUnknownUser(t *testing.T) {
	r, _ := setup(t)
	assert.Equal(t, http.StatusNotFound, get(r, "/users/me", "ghost").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/users/me", "").Code)
}

func TestRecommendationsExcludeLibrary(t *testing.T) {
	r, p := setup(t)
	require.NoError(t, p.Library.Upsert(context.Background(), models.LibraryItem{UserID: "u1", AnimeID: 1, Status: "completed"}))

	w := get(r, "/users/recommendations", "u1")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Items []models.CanonicalAnime `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, 2, out.Items[0].ID)
}
