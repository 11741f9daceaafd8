package anime

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"animehub/internal/catalog"
	"animehub/internal/logging"
)

const (
	defaultListLimit = 20
	maxListLimit     = 25
)

type Handler struct {
	Pipeline *catalog.Pipeline
	Repo     *Repo
}

func NewHandler(p *catalog.Pipeline, repo *Repo) *Handler {
	return &Handler{Pipeline: p, Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search) // ?q=&page=
	rg.GET("/top", h.top)
	rg.GET("/popular", h.popular)
	rg.GET("/season/now", h.seasonNow)
	rg.GET("/genres", h.genres)
	rg.GET("/genre/:name", h.byGenre)
	rg.GET("/snapshot", h.snapshots)
	rg.GET("/:id", h.getByID)
	rg.GET("/:id/details", h.details)
	rg.GET("/:id/characters", h.characters)
	rg.GET("/:id/recommendations", h.recommendations)
}

func listLimit(c *gin.Context) int {
	n := parseInt(c.Query("limit"), defaultListLimit)
	if n <= 0 || n > maxListLimit {
		return defaultListLimit
	}
	return n
}

func (h *Handler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	page := parseInt(c.Query("page"), 1)
	if page <= 1 {
		items := h.Pipeline.SearchByName(c.Request.Context(), q)
		c.JSON(http.StatusOK, gin.H{"page": 1, "items": items})
		return
	}

	res := h.Pipeline.SearchPage(c.Request.Context(), q, page)
	c.JSON(http.StatusOK, gin.H{
		"page":          page,
		"items":         res.Items,
		"has_next_page": res.HasNextPage,
	})
}

func (h *Handler) top(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.ListTopRated(c.Request.Context(), listLimit(c))})
}

func (h *Handler) popular(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.ListMostPopular(c.Request.Context(), listLimit(c))})
}

func (h *Handler) seasonNow(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.ListSeasonNow(c.Request.Context())})
}

func (h *Handler) genres(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.ListGenres(c.Request.Context())})
}

func (h *Handler) byGenre(c *gin.Context) {
	name := c.Param("name")
	items := h.Pipeline.ListByGenre(c.Request.Context(), name, listLimit(c))
	c.JSON(http.StatusOK, gin.H{"genre": name, "items": items})
}

// animeID parses the :id param, writing a 400 when it is not a positive int.
func animeID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := animeID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, found := h.Pipeline.LookupByID(ctx, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Repo != nil {
		if err := h.Repo.Save(ctx, a); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("id", id).Msg("[anime] snapshot save failed")
		}
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) details(c *gin.Context) {
	id, ok := animeID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, found := h.Pipeline.LookupByID(ctx, id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, h.Pipeline.DetailEnrichment(ctx, a))
}

func (h *Handler) characters(c *gin.Context) {
	id, ok := animeID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.Characters(c.Request.Context(), id)})
}

func (h *Handler) recommendations(c *gin.Context) {
	id, ok := animeID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.Pipeline.Recommendations(c.Request.Context(), id)})
}

func (h *Handler) snapshots(c *gin.Context) {
	q := ListQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		Limit:  parseInt(c.Query("limit"), 20),
		Offset: parseInt(c.Query("offset"), 0),
	}

	// genres=Action,Drama OR genres=Action&genres=Drama
	genres := c.QueryArray("genres")
	if len(genres) == 1 {
		genres = strings.Split(genres[0], ",")
	}
	q.Genres = genres
	q.Limit, q.Offset = clampPage(q.Limit, q.Offset)

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
