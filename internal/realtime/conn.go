package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// Serve runs the read and write pumps of one board connection until either side closes it.
// The connection is owned by Serve and closed on return.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, sess *core.Session) {
	client := NewClient(sess, sendBuffer)
	h.Join(client)
	h.logger.Info("Board client connected",
		zap.String("clientId", client.ID),
		zap.String("uid", sess.UID),
		zap.String("companyId", sess.CompanyID))

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, client)
	}()

	h.readPump(ctx, conn, client)
	cancel()
	h.Leave(client)
	<-done
	h.logger.Info("Board client disconnected", zap.String("clientId", client.ID))
}

func (h *Hub) readPump(ctx context.Context, conn *websocket.Conn, c *Client) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Board read error", zap.String("clientId", c.ID), zap.Error(err))
			}
			return
		}
		h.Handle(ctx, c, raw)
	}
}

// writePump drains c.Send until the hub closes it.
func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
