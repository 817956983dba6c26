// README: WebSocket subscription endpoint for notification topics.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"freightgo/internal/notify"
)

type WSHandler struct {
	hub *notify.Hub
	log *zap.Logger
}

func NewWSHandler(hub *notify.Hub, log *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway in front of this service enforces origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Subscribe upgrades the connection and attaches it to the requested topic
// until the peer disconnects.
func (h *WSHandler) Subscribe(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		writeError(c, http.StatusBadRequest, "missing topic")
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	sess := h.hub.Subscribe(topic, conn)
	defer func() {
		h.hub.Unsubscribe(topic, sess)
		_ = conn.Close()
	}()

	// Drain control frames; any read error means the peer is gone.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
