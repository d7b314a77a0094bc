package api

import (
	"net/http"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// defaultPageSize applies when a listing request carries no limit
const defaultPageSize = 20

// ArticleHandler handles article, favorite and tag endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

type articleRequest struct {
	Article models.CreateArticleInput `json:"article"`
}

type updateArticleRequest struct {
	Article models.UpdateArticleInput `json:"article"`
}

// List handles GET /api/articles?tag=&author=&favorited=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	list, err := h.services.Article.List(c.Request.Context(), viewerID(c), models.ArticleFilter{
		Tag:       c.Query("tag"),
		Author:    c.Query("author"),
		Favorited: c.Query("favorited"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Feed handles GET /api/articles/feed
func (h *ArticleHandler) Feed(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultPageSize)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	list, err := h.services.Article.Feed(c.Request.Context(), viewerID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/articles/:slug
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), viewerID(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), viewerID(c), req.Article)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"article": article})
}

// Update handles PUT /api/articles/:slug
func (h *ArticleHandler) Update(c *gin.Context) {
	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), viewerID(c), c.Param("slug"), req.Article)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Delete handles DELETE /api/articles/:slug
func (h *ArticleHandler) Delete(c *gin.Context) {
	deleted, err := h.services.Article.Delete(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// Favorite handles POST /api/articles/:slug/favorite
func (h *ArticleHandler) Favorite(c *gin.Context) {
	article, err := h.services.Favorite.Favorite(c.Request.Context(), viewerID(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Unfavorite handles DELETE /api/articles/:slug/favorite
func (h *ArticleHandler) Unfavorite(c *gin.Context) {
	article, err := h.services.Favorite.Unfavorite(c.Request.Context(), viewerID(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}

// Tags handles GET /api/tags
func (h *ArticleHandler) Tags(c *gin.Context) {
	tags, err := h.services.Tag.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
