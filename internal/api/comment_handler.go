package api

import (
	"net/http"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// List handles GET /api/articles/:slug/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.services.Comment.List(c.Request.Context(), viewerID(c), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Add handles POST /api/articles/:slug/comments
func (h *CommentHandler) Add(c *gin.Context) {
	var req struct {
		Comment models.CreateCommentInput `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.services.Comment.Add(c.Request.Context(), viewerID(c), c.Param("slug"), req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Remove handles DELETE /api/articles/:slug/comments/:id
func (h *CommentHandler) Remove(c *gin.Context) {
	article, err := h.services.Comment.Remove(c.Request.Context(), viewerID(c), c.Param("slug"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"article": article})
}
