package reviews

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"animehub/internal/auth"
	"animehub/internal/logging"
)

const maxCommentLen = 2000

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/anime/:id/comments", h.listByAnime)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/ratings", h.listRatings)
	rg.PUT("/ratings/:anime_id", h.rate)
	rg.POST("/comments", h.createComment)
	rg.DELETE("/comments/:id", h.deleteComment)
}

func validRating(n int) bool { return n >= 1 && n <= 10 }

type rateReq struct {
	Rating int `json:"rating"`
}

func (h *Handler) rate(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	animeID := parseInt(c.Param("anime_id"), 0)
	if animeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return
	}

	var req rateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validRating(req.Rating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}

	rt, err := h.Repo.Rate(c.Request.Context(), claims.UserID, animeID, req.Rating)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[reviews] rate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, rt)
}

func (h *Handler) listRatings(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	items, err := h.Repo.Ratings(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

type commentReq struct {
	AnimeID int    `json:"anime_id"`
	Text    string `json:"text"`
	Rating  *int   `json:"rating,omitempty"`
}

func (h *Handler) createComment(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req commentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if req.AnimeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || len(text) > maxCommentLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be 1-2000 chars"})
		return
	}
	if req.Rating != nil && !validRating(*req.Rating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 10"})
		return
	}

	cm, err := h.Repo.AddComment(c.Request.Context(), claims.UserID, req.AnimeID, text, req.Rating)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[reviews] create comment failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	c.JSON(http.StatusCreated, cm)
}

func (h *Handler) listByAnime(c *gin.Context) {
	animeID := parseInt(c.Param("id"), 0)
	if animeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anime id"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	comments, err := h.Repo.CommentsByAnime(c.Request.Context(), animeID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"items":  comments,
	})
}

func (h *Handler) deleteComment(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	ok, err := h.Repo.DeleteComment(c.Request.Context(), id, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
