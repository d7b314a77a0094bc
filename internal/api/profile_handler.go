package api

import (
	"net/http"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ProfileHandler handles profile and follow endpoints
type ProfileHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(services *service.Services, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		services: services,
		log:      log.With().Str("handler", "profile").Logger(),
	}
}

// Get handles GET /api/profiles/:username
func (h *ProfileHandler) Get(c *gin.Context) {
	h.respond(c)(h.services.Profile.Get(c.Request.Context(), viewerID(c), c.Param("username")))
}

// Follow handles POST /api/profiles/:username/follow
func (h *ProfileHandler) Follow(c *gin.Context) {
	h.respond(c)(h.services.Profile.Follow(c.Request.Context(), viewerID(c), c.Param("username")))
}

// Unfollow handles DELETE /api/profiles/:username/follow
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	h.respond(c)(h.services.Profile.Unfollow(c.Request.Context(), viewerID(c), c.Param("username")))
}

func (h *ProfileHandler) respond(c *gin.Context) func(*models.Profile, error) {
	return func(profile *models.Profile, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"profile": profile})
	}
}
