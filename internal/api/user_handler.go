package api

import (
	"net/http"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles user provisioning endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req struct {
		User models.CreateUserInput `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.services.User.Create(c.Request.Context(), req.User)
	if err != nil {
		respondError(c, err)
		return
	}

	h.log.Info().Str("user_id", user.ID).Msg("User provisioned")
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Current handles GET /api/user
func (h *UserHandler) Current(c *gin.Context) {
	user, err := h.services.User.Get(c.Request.Context(), viewerID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Update handles PUT /api/user
func (h *UserHandler) Update(c *gin.Context) {
	var req struct {
		User models.UpdateUserInput `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.services.User.Update(c.Request.Context(), viewerID(c), req.User)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Delete handles DELETE /api/user
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.services.User.Delete(c.Request.Context(), viewerID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
