package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
)

// BoardServer runs one realtime board connection. *realtime.Hub implements it.
type BoardServer interface {
	Serve(ctx context.Context, conn *websocket.Conn, sess *core.Session)
}

// BoardHandler serves the kanban board as a static snapshot and as a WebSocket stream.
type BoardHandler struct {
	projectService core.ProjectService
	hub            BoardServer
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewBoardHandler creates a BoardHandler whose upgrader accepts only the given origins.
// Requests without an Origin header (non-browser clients) are accepted.
func NewBoardHandler(ps core.ProjectService, hub BoardServer, allowedOrigins []string, logger *zap.Logger) *BoardHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &BoardHandler{
		projectService: ps,
		hub:            hub,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// GetBoard handles GET /companies/:companyId/board?q=
func (h *BoardHandler) GetBoard(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	board, err := h.projectService.Board(c.Request.Context(), sess, c.Query("q"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// StreamBoard handles GET /companies/:companyId/board/ws
func (h *BoardHandler) StreamBoard(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	if _, err := core.Authorize(sess.Role, core.ActionProjectView); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("WebSocket upgrade failed", zap.String("uid", sess.UID), zap.Error(err))
		return
	}
	h.hub.Serve(c.Request.Context(), conn, sess)
}
