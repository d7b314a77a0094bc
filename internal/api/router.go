package api

import (
	"context"
	"net/http"
	"time"

	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// healthTimeout bounds the storage ping behind /health
const healthTimeout = 2 * time.Second

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	mode := cfg.Server.GinMode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORS, cfg.Auth.IdentityHeader))
	router.Use(identityMiddleware(cfg.Auth.IdentityHeader))

	// Handlers
	articles := NewArticleHandler(services, log)
	comments := NewCommentHandler(services, log)
	profiles := NewProfileHandler(services, log)
	users := NewUserHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(services.Health))
	router.GET("/metrics", metricsHandler(services))

	api := router.Group("/api")
	{
		api.GET("/articles", articles.List)
		api.GET("/articles/feed", articles.Feed)
		api.POST("/articles", articles.Create)
		api.GET("/articles/:slug", articles.Get)
		api.PUT("/articles/:slug", articles.Update)
		api.DELETE("/articles/:slug", articles.Delete)

		api.POST("/articles/:slug/favorite", articles.Favorite)
		api.DELETE("/articles/:slug/favorite", articles.Unfavorite)

		api.GET("/articles/:slug/comments", comments.List)
		api.POST("/articles/:slug/comments", comments.Add)
		api.DELETE("/articles/:slug/comments/:id", comments.Remove)

		api.GET("/tags", articles.Tags)

		api.GET("/profiles/:username", profiles.Get)
		api.POST("/profiles/:username/follow", profiles.Follow)
		api.DELETE("/profiles/:username/follow", profiles.Unfollow)

		api.POST("/users", users.Create)
		api.GET("/user", users.Current)
		api.PUT("/user", users.Update)
		api.DELETE("/user", users.Delete)
	}

	return router
}

// healthCheck reports liveness, and storage reachability when a checker is wired
func healthCheck(checker service.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "conduit-api",
		}

		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := checker.HealthCheck(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}

		c.JSON(status, body)
	}
}

// metricsHandler returns row counts per resource
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		counts := gin.H{}
		for _, resource := range service.Resources {
			n, err := services.Stats.GetCount(ctx, resource)
			if err != nil {
				respondError(c, err)
				return
			}
			counts[resource] = n
		}

		c.JSON(http.StatusOK, gin.H{
			"database":  counts,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("internal server error"))
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("viewer_id", viewerID(c)).
			Msg("Request completed")
	}
}

// corsMiddleware allows the configured browser origins to send the identity header
func corsMiddleware(cfg config.CORSConfig, identityHeader string) gin.HandlerFunc {
	if identityHeader == "" {
		identityHeader = defaultIdentityHeader
	}
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", identityHeader}
	corsCfg.AllowCredentials = cfg.AllowCredentials
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(corsCfg)
}
