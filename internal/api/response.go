package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	domainerrors "github.com/conduit-api/internal/errors"
	"github.com/gin-gonic/gin"
)

const (
	viewerKey             = "viewer_id"
	defaultIdentityHeader = "X-User-ID"
)

// identityMiddleware copies the user id forwarded by the gateway into the
// request context. A missing header means an anonymous caller.
func identityMiddleware(header string) gin.HandlerFunc {
	if header == "" {
		header = defaultIdentityHeader
	}
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(header)); id != "" {
			c.Set(viewerKey, id)
		}
		c.Next()
	}
}

func viewerID(c *gin.Context) string {
	return c.GetString(viewerKey)
}

// respondError maps domain errors to their status; anything else is a 500
func respondError(c *gin.Context, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
		return
	}

	if details, ok := domainErr.Details.(map[string]string); ok && len(details) > 0 {
		fields := make(gin.H, len(details))
		for field, msg := range details {
			fields[field] = []string{msg}
		}
		c.JSON(domainErr.HTTPStatus(), gin.H{"errors": fields})
		return
	}

	c.JSON(domainErr.HTTPStatus(), errorBody(domainErr.Message))
}

// errorBody renders the conventional {"errors": {"body": [...]}} shape
func errorBody(msg string) gin.H {
	return gin.H{"errors": gin.H{"body": []string{msg}}}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusUnprocessableEntity, errorBody(msg))
}

// intQuery parses a non-negative integer query parameter, returning def when absent
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
