package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SlogRequestLogger logs one line per request after the handler chain has
// run. Liveness probes hit /health every few seconds, so those land at
// debug level to keep the info stream about real consumers.
func SlogRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		if logger == nil {
			return
		}

		level := slog.LevelInfo
		if path == "/api/v1/health" {
			level = slog.LevelDebug
		}

		attrs := []any{
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"client_ip", c.ClientIP(),
		}
		if query != "" {
			attrs = append(attrs, "query", query)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		logger.Log(c.Request.Context(), level, "api request", attrs...)
	}
}
