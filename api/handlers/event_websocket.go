package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/novastream/novastream-go/internal/app"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API only listens on localhost by default
	},
}

// EventWebSocketHandler streams ProgressEvents to browser clients. Every
// connection owns its own subscription, so a slow client only coalesces its
// own progress updates.
type EventWebSocketHandler struct {
	coord  *app.JobCoordinator
	logger *zap.Logger
}

// NewEventWebSocketHandler creates a new event stream handler
func NewEventWebSocketHandler(coord *app.JobCoordinator, log *zap.Logger) *EventWebSocketHandler {
	return &EventWebSocketHandler{
		coord:  coord,
		logger: log,
	}
}

// HandleWebSocket handles GET /api/v1/events/ws
func (h *EventWebSocketHandler) HandleWebSocket(c *gin.Context) {
	// Subscribe before the handshake completes so a client never misses
	// events published right after it connects.
	sub := h.coord.Subscribe()
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Event stream client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))
	defer h.logger.Info("Event stream client disconnected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Client messages are ignored; reading drives ping/pong and close detection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.Ready():
			for {
				ev, ok := sub.Poll()
				if !ok {
					break
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					h.logger.Debug("Failed to send event", zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
