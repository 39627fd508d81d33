// Package ws streams tracking events over WebSocket, mirroring the SSE
// endpoint for clients that prefer a bidirectional transport.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/infrastructure/monitoring"
	"github.com/pressview/pressview/internal/proxy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard runs on a different origin
	},
}

// Handler manages WebSocket event-stream connections.
type Handler struct {
	events  *proxy.Log
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandler creates a WebSocket handler over the shared event log.
func NewHandler(events *proxy.Log, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		events:  events,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection upgrades the request and streams events: the buffered
// window is replayed first, then appends are polled every second. The
// connection closes when the client goes away or a write fails.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncStreamSubscribers()
		defer h.metrics.DecStreamSubscribers()
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "system",
		"message": "Connected to tracking event stream",
	}); err != nil {
		return
	}

	backlog, seq := h.events.Events()
	for _, ev := range backlog {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}

	// Reads are only drained to detect client close; inbound messages
	// carry no meaning on this endpoint.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			fresh, next := h.events.EventsSince(seq)
			seq = next
			for _, ev := range fresh {
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	}
}
