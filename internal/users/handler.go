package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"animehub/internal/auth"
	"animehub/internal/logging"
	"animehub/internal/recommend"
)

type Handler struct {
	Profiles  *Profiles
	Recommend *recommend.Engine
}

func NewHandler(p *Profiles, engine *recommend.Engine) *Handler {
	return &Handler{Profiles: p, Recommend: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/recommendations", h.recommendations)
}

func (h *Handler) me(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	u, err := h.Profiles.Load(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[users] load profile failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile failed"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) recommendations(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	u, err := h.Profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile failed"})
		return
	}

	items := h.Recommend.For(ctx, u)
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}
