package progress

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animehub/internal/auth"
	"animehub/pkg/database"
	"animehub/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(database.Config{Path: filepath.Join(t.TempDir(), "progress.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`INSERT INTO users (id, username, email, password_hash) VALUES ('u1', 'ed', 'ed@bebop.io', 'x')`)
	require.NoError(t, err)
	return db
}

func animeIDs(entries []models.WatchHistoryEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.AnimeID)
	}
	return out
}

func TestAddMovesExistingToFront(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	ep := 3
	for _, id := range []int{1, 2, 3} {
		require.NoError(t, repo.Add(ctx, models.WatchHistoryEntry{UserID: "u1", AnimeID: id, WatchedAt: time.Now().UTC()}))
	}
	require.NoError(t, repo.Add(ctx, models.WatchHistoryEntry{UserID: "u1", AnimeID: 1, Episode: &ep, WatchedAt: time.Now().UTC()}))

	items, total, err := repo.List(ctx, "u1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []int{1, 3, 2}, animeIDs(items))
	require.NotNil(t, items[0].Episode)
	assert.Equal(t, 3, *items[0].Episode)
	assert.Nil(t, items[1].Episode)
}

func TestAddCapsHistory(t *testing.T) {
	repo := NewRepo(newTestDB(t))
	ctx := context.Background()

	for id := 1; id <= MaxHistory+5; id++ {
		require.NoError(t, repo.Add(ctx, models.WatchHistoryEntry{UserID: "u1", AnimeID: id, WatchedAt: time.Now().UTC()}))
	}

	items, total, err := repo.List(ctx, "u1", MaxHistory, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxHistory, total)
	assert.Equal(t, MaxHistory+5, items[0].AnimeID)
	assert.Equal(t, 6, items[len(items)-1].AnimeID)
}

func TestHistoryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepo(newTestDB(t)))
	r := gin.New()
	g := r.Group("/users", func(c *gin.Context) { c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: "u1"}) })
	h.RegisterRoutes(g)

	req := httptest.NewRequest(http.MethodPost, "/users/history", strings.NewReader(`{"anime_id":5114,"episode":2}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/users/history", strings.NewReader(`{"anime_id":0}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"anime_id":5114`)
	assert.Contains(t, w.Body.String(), `"total":1`)
}
