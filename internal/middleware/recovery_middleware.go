package middleware

import (
	"net/http"
	"runtime/debug" // stack of the panicking goroutine

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware returns a gin.HandlerFunc that recovers from panics raised by any
// downstream handler, logs the panic together with its stack trace and the request it
// happened on, and answers with the same ErrorResponse shape the API uses for internal errors.
// Panic details never reach the client.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		// A recovery layer that cannot log would hide every panic.
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// debug.Stack() is called inside the deferred function, so it still points at
				// the frame that panicked.
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				// A handler may have started streaming before it panicked (board sockets, large
				// listings). Writing a second status line would only add a gin warning.
				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error", Code: "internal"})
				}

				// Stop the chain: nothing after a panic should run for this request.
				c.Abort()
			}
		}()

		c.Next()
	}
}
