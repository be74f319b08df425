package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger returns a gin.HandlerFunc that writes one structured zap line per request:
// method, path, status code, latency, client IP, the caller's uid once VerifyToken has run,
// and any errors handlers attached to the gin context.
// The level follows the status code (5xx error, 4xx warn, everything else info).
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RequestLogger requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		start := time.Now()

		// Copy these before c.Next(); handlers are free to rewrite the request.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status_code", statusCode),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		// Board sockets authenticate with ?access_token=; the raw query is dropped then.
		if query != "" && c.Query("access_token") == "" {
			fields = append(fields, zap.String("query", query))
		}
		// Set by VerifyToken; absent on public routes and on rejected tokens.
		if uid := c.GetString(ContextUserID); uid != "" {
			fields = append(fields, zap.String("uid", uid))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("gin_errors", c.Errors.String()))
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error("Incoming Request", fields...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("Incoming Request", fields...)
		default: // 1xx, 2xx, 3xx
			logger.Info("Incoming Request", fields...)
		}
	}
}
