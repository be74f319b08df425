package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Code    string `json:"code,omitempty"`    // Machine-readable error class
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MoveResponse answers a kanban drop made over REST.
type MoveResponse struct {
	ProjectID string `json:"projectId"`
	Written   bool   `json:"written"`
}

// statusOf maps an error class to its HTTP status.
var statusOf = map[core.Code]int{
	core.CodeUnauthenticated:    http.StatusUnauthorized,
	core.CodeInvalidArgument:    http.StatusBadRequest,
	core.CodePermissionDenied:   http.StatusForbidden,
	core.CodeAlreadyExists:      http.StatusConflict,
	core.CodeNotFound:           http.StatusNotFound,
	core.CodeFailedPrecondition: http.StatusPreconditionFailed,
	core.CodeInternal:           http.StatusInternalServerError,
}

// mapServiceError writes the ErrorResponse for an error returned by a core service.
// Internal errors are logged and their details are never sent to the client.
func mapServiceError(c *gin.Context, logger *zap.Logger, err error) {
	code := core.CodeOf(err)
	if code == core.CodeInternal {
		logger.Error("Internal Server Error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected internal server error occurred.",
			Code:  string(code),
		})
		return
	}
	c.JSON(statusOf[code], ErrorResponse{Error: err.Error(), Code: string(code)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request payload",
		Code:    string(core.CodeInvalidArgument),
		Details: err.Error(),
	})
}
