package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"animehub/internal/logging"
)

// AvatarFunc picks a profile picture for a new account.
type AvatarFunc func(ctx context.Context) (string, bool)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
	Avatar AvatarFunc
}

func NewHandler(repo *Repo, tokens TokenService) *Handler {
	return &Handler{Repo: repo, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/change-password", Middleware(h.Tokens, h.Repo), h.changePassword)
	rg.POST("/logout", Middleware(h.Tokens, h.Repo), h.logout)
}

func userJSON(u *User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"avatar_url": u.AvatarURL,
	}
}

// startSession signs a token for u and writes the session payload that both
// register and login return.
func (h *Handler) startSession(c *gin.Context, status int, u *User) {
	token, exp, err := h.Tokens.Sign(u)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", u.ID).Msg("[auth] sign token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}
	c.JSON(status, gin.H{
		"user":       userJSON(u),
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// currentUser loads the account behind the bearer token. A token whose user
// vanished is answered like any other bad token.
func (h *Handler) currentUser(c *gin.Context) (*User, bool) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}
	u, err := h.Repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", claims.UserID).Msg("[auth] load user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load user failed"})
		return nil, false
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}
	return u, true
}

func badCredentials(c *gin.Context, err error) bool {
	if ce, ok := isCredentialError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(ce)})
		return true
	}
	return false
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s, err := normalizeSignup(req)
	if badCredentials(c, err) {
		return
	}

	ctx := c.Request.Context()
	if taken, field, err := h.handleTaken(ctx, s); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("[auth] uniqueness lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	} else if taken {
		c.JSON(http.StatusConflict, gin.H{"error": field + " already exists"})
		return
	}

	hash, err := hashPassword(s.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	u := &User{ID: uuid.NewString(), Username: s.Username, Email: s.Email, PasswordHash: hash}
	if h.Avatar != nil {
		if url, ok := h.Avatar(ctx); ok {
			u.AvatarURL = url
		}
	}

	// the unique indexes still catch a concurrent signup that slipped past handleTaken
	if err := h.Repo.CreateUser(ctx, *u); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("username", u.Username).Msg("[auth] create user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}
	logging.Ctx(ctx).Info().Str("user_id", u.ID).Msg("[auth] account created")
	h.startSession(c, http.StatusCreated, u)
}

// handleTaken reports which of email or username is already registered.
func (h *Handler) handleTaken(ctx context.Context, s signup) (bool, string, error) {
	if u, err := h.Repo.GetByEmail(ctx, s.Email); err != nil || u != nil {
		return u != nil, "email", err
	}
	u, err := h.Repo.GetByUsername(ctx, s.Username)
	return u != nil, "username", err
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	u, err := h.Repo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[auth] login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !passwordMatches(u, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	h.startSession(c, http.StatusOK, u)
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and new password required"})
		return
	}
	if badCredentials(c, checkPassword(req.NewPassword)) {
		return
	}
	if req.NewPassword == req.OldPassword {
		badCredentials(c, errSamePassword)
		return
	}

	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	if !passwordMatches(u, req.OldPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	// bumping the token version signs out every other device, this one included
	if err := h.Repo.UpdatePasswordAndBumpTokenVersion(c.Request.Context(), u.ID, hash); err != nil {
		h.tokenUpdateFailed(c, u.ID, err, "update password failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

func (h *Handler) logout(c *gin.Context) {
	userID := UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.Repo.BumpTokenVersion(c.Request.Context(), userID); err != nil {
		h.tokenUpdateFailed(c, userID, err, "logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) tokenUpdateFailed(c *gin.Context, userID string, err error, msg string) {
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	logging.Ctx(c.Request.Context()).Error().Err(err).Str("user_id", userID).Msg("[auth] " + msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
