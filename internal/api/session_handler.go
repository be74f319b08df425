package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/middleware"
)

// SessionHandler exposes the resolved session to the dashboard.
type SessionHandler struct{}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// GetSession handles GET /api/v1/session. The session was already resolved by the tenant
// middleware, which answers 401 with the rejection reason when it could not be.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func sessionOrAbort(c *gin.Context) (*core.Session, bool) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Session not found in context",
			Code:  string(core.CodeUnauthenticated),
		})
		return nil, false
	}
	return sess, true
}

// seqID accepts sequential ids with or without their leading '#', since '#' must be
// percent-encoded in paths.
func seqID(c *gin.Context, param string) string {
	id := strings.TrimSpace(c.Param(param))
	if id == "" || strings.HasPrefix(id, "#") {
		return id
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	return "#" + id
}
