package library

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"animehub/internal/auth"
	"animehub/internal/catalog"
	"animehub/internal/logging"
	"animehub/internal/sync"
	"animehub/pkg/models"
)

var validStatuses = "plan_to_watch, watching, completed, on_hold, dropped"

type Handler struct {
	Repo    *Repo
	Hub     *sync.Hub
	Lookup  catalog.LookupFunc
	Hydrate catalog.HydrateOptions
}

func NewHandler(repo *Repo, hub *sync.Hub, lookup catalog.LookupFunc, opts catalog.HydrateOptions) *Handler {
	return &Handler{Repo: repo, Hub: hub, Lookup: lookup, Hydrate: opts}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/watchlist", h.list)
	rg.POST("/watchlist", h.addOrUpdate)
	rg.GET("/watchlist/hydrated", h.hydratedWatchlist)
	rg.PUT("/watchlist/:anime_id", h.addOrUpdate)
	rg.DELETE("/watchlist/:anime_id", h.remove)
	rg.GET("/watchlist/:anime_id", h.getOne)

	rg.GET("/favorites", h.listFavorites)
	rg.POST("/favorites", h.addFavorite)
	rg.GET("/favorites/hydrated", h.hydratedFavorites)
	rg.DELETE("/favorites/:anime_id", h.removeFavorite)
}

type upsertReq struct {
	AnimeID int    `json:"anime_id"` // required for POST
	Status  string `json:"status"`
}

func (h *Handler) addOrUpdate(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	animeID := req.AnimeID
	if p := c.Param("anime_id"); p != "" {
		animeID = parseInt(p, 0)
	}
	if animeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return
	}

	status := normalizeStatus(req.Status)
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of: " + validStatuses})
		return
	}

	item := models.LibraryItem{UserID: userID, AnimeID: animeID, Status: status}
	if err := h.Repo.Upsert(c.Request.Context(), item); err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[library] upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), userID, animeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch saved failed"})
		return
	}
	if saved == nil {
		item.UpdatedAt = time.Now().UTC()
		saved = &item
	}

	h.Hub.Publish(sync.NewEvent(sync.EventWatchlistUpdate, userID, animeID, saved.Status))
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		status = normalizeStatus(status)
		if status == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), userID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) remove(c *gin.Context) {
	userID := auth.UserID(c)
	animeID, ok := animeIDParam(c)
	if !ok {
		return
	}

	deleted, err := h.Repo.Delete(c.Request.Context(), userID, animeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.EventWatchlistDelete, userID, animeID, ""))
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) getOne(c *gin.Context) {
	userID := auth.UserID(c)
	animeID, ok := animeIDParam(c)
	if !ok {
		return
	}

	it, err := h.Repo.Get(c.Request.Context(), userID, animeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if it == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *Handler) hydratedWatchlist(c *gin.Context) {
	ids, err := h.Repo.WatchlistIDs(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	h.respondHydrated(c, ids)
}

type favoriteReq struct {
	AnimeID int `json:"anime_id"`
}

func (h *Handler) addFavorite(c *gin.Context) {
	userID := auth.UserID(c)

	var req favoriteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AnimeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return
	}

	added, err := h.Repo.AddFavorite(c.Request.Context(), userID, req.AnimeID)
	if err != nil {
		logging.Ctx(c.Request.Context()).Error().Err(err).Msg("[library] add favorite failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"message": "already a favorite"})
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.EventFavoriteAdd, userID, req.AnimeID, ""))
	c.JSON(http.StatusCreated, gin.H{"anime_id": req.AnimeID})
}

func (h *Handler) removeFavorite(c *gin.Context) {
	userID := auth.UserID(c)
	animeID, ok := animeIDParam(c)
	if !ok {
		return
	}

	removed, err := h.Repo.RemoveFavorite(c.Request.Context(), userID, animeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.Hub.Publish(sync.NewEvent(sync.EventFavoriteDelete, userID, animeID, ""))
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) listFavorites(c *gin.Context) {
	favs, err := h.Repo.Favorites(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": favs, "total": len(favs)})
}

func (h *Handler) hydratedFavorites(c *gin.Context) {
	ids, err := h.Repo.FavoriteIDs(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	h.respondHydrated(c, ids)
}

// respondHydrated resolves ids through the catalog. Ids no source knows
// are left out.
func (h *Handler) respondHydrated(c *gin.Context, ids []int) {
	if h.Lookup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog unavailable"})
		return
	}
	animes := catalog.Hydrate(c.Request.Context(), h.Lookup, ids, h.Hydrate)
	c.JSON(http.StatusOK, gin.H{
		"data":      animes,
		"requested": len(ids),
		"resolved":  len(animes),
	})
}

func animeIDParam(c *gin.Context) (int, bool) {
	id := parseInt(c.Param("anime_id"), 0)
	if id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "anime_id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plan_to_watch", "plan to watch", "plantowatch", "planned", "ptw":
		return "plan_to_watch"
	case "watching", "current":
		return "watching"
	case "completed", "complete", "finished":
		return "completed"
	case "on_hold", "on hold", "onhold", "paused":
		return "on_hold"
	case "dropped":
		return "dropped"
	default:
		return ""
	}
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
