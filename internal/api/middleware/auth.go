// Package middleware provides HTTP middleware for the dnslens REST API,
// including API key authentication and request logging.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/models"
)

// RequireAPIKey enforces a shared-secret API key on every request.
// Clients send `X-API-Key: <key>`; an empty expected key disables the
// check. The comparison is constant time so the key cannot be probed
// byte by byte through response timing.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1 {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
	}
}
