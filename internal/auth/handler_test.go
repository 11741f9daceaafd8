package auth

import (
	"bytes"
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

	"animehub/pkg/database"
)

type authResp struct {
	User struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	Token string `json:"token"`
}

func setup(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenAndMigrate(database.Config{Path: filepath.Join(t.TempDir(), "auth.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "animehub", Duration: time.Hour}
	h := NewHandler(NewRepo(db), tokens)
	h.Avatar = func(context.Context) (string, bool) { return "https://cdn/avatar.jpg", true }

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.GET("/me", Middleware(tokens, h.Repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c)})
	})
	return r, h
}

func do(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r http.Handler) authResp {
	t.Helper()
	w := do(r, http.MethodPost, "/auth/register", "", gin.H{
		"username": "spike", "email": "Spike@Bebop.io", "password": "swordfish2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp authResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterLoginAndAccess(t *testing.T) {
	r, _ := setup(t)
	reg := register(t, r)

	assert.Equal(t, "spike", reg.User.Username)
	assert.Equal(t, "https://cdn/avatar.jpg", reg.User.AvatarURL)

	w := do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "spike@bebop.io", "password": "swordfish2"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/me", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), reg.User.ID)
}

func TestRegisterValidation(t *testing.T) {
	r, _ := setup(t)
	register(t, r)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "spike", "email": "other@bebop.io", "password": "swordfish2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "jet", "email": "jet", "password": "swordfish2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "jet", "email": "jet@bebop.io", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	r, _ := setup(t)
	register(t, r)

	w := do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "spike@bebop.io", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	r, _ := setup(t)
	reg := register(t, r)

	w := do(r, http.MethodPost, "/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	r, _ := setup(t)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "garbage", nil).Code)
}

func TestParseRejectsOtherIssuer(t *testing.T) {
	a := TokenService{Secret: []byte("s"), Issuer: "a", Duration: time.Minute}
	b := TokenService{Secret: []byte("s"), Issuer: "b", Duration: time.Minute}

	tok, _, err := a.Sign(&User{ID: "u1", Username: "x"})
	require.NoError(t, err)

	_, err = b.Parse(tok)
	assert.Error(t, err)

	claims, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRegisterRejectsTakenEmailCaseInsensitively(t *testing.T) {
	r, _ := setup(t)
	register(t, r)

	w := do(r, http.MethodPost, "/auth/register", "", gin.H{"username": "faye", "email": "SPIKE@bebop.io ", "password": "swordfish2"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email already exists")
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	r, _ := setup(t)
	register(t, r)

	unknown := do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "vicious@redDragon.io", "password": "swordfish2"})
	wrong := do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "spike@bebop.io", "password": "not-it-at-all"})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestChangePasswordRotatesSession(t *testing.T) {
	r, _ := setup(t)
	reg := register(t, r)

	w := do(r, http.MethodPost, "/auth/change-password", reg.Token, gin.H{"old_password": "wrong-one", "new_password": "jupiter-jazz"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/auth/change-password", reg.Token, gin.H{"old_password": "swordfish2", "new_password": "swordfish2"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must differ")

	w = do(r, http.MethodPost, "/auth/change-password", reg.Token, gin.H{"old_password": "swordfish2", "new_password": "jupiter-jazz"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", reg.Token, nil).Code)

	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "spike@bebop.io", "password": "swordfish2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(r, http.MethodPost, "/auth/login", "", gin.H{"email": "spike@bebop.io", "password": "jupiter-jazz"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNormalizeSignup(t *testing.T) {
	cases := []struct {
		name    string
		req     registerReq
		wantErr string
	}{
		{"ok", registerReq{Username: " ed.wong ", Email: " Ed@Bebop.IO", Password: "radical-ed"}, ""},
		{"short handle", registerReq{Username: "ed", Email: "ed@bebop.io", Password: "radical-ed"}, "username"},
		{"space in handle", registerReq{Username: "ed wong", Email: "ed@bebop.io", Password: "radical-ed"}, "username"},
		{"no at sign", registerReq{Username: "edward", Email: "bebop.io", Password: "radical-ed"}, "invalid email"},
		{"display name", registerReq{Username: "edward", Email: "Ed <ed@bebop.io>", Password: "radical-ed"}, "invalid email"},
		{"short password", registerReq{Username: "edward", Email: "ed@bebop.io", Password: "ein"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := normalizeSignup(tc.req)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "ed.wong", s.Username)
				assert.Equal(t, "ed@bebop.io", s.Email)
				return
			}
			ce, ok := isCredentialError(err)
			require.True(t, ok, "got %v", err)
			assert.Contains(t, string(ce), tc.wantErr)
		})
	}
}
