package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the status socket is a local operator tool, not multi-tenant
	},
}

// Event is one JSON message pushed to connected status clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans out station and frame events to connected WebSocket clients.
type Hub struct {
	logger  *slog.Logger
	clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

// NewHub returns an empty Hub. A nil logger falls back to slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: make(map[*websocket.Conn]struct{})}
}

// HandleWebSocket upgrades the connection and registers it for broadcasts.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer conn.Close()
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Broadcast marshals payload and sends it to every connected client,
// dropping any that fail to write.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error("marshaling status event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// StationAssociated broadcasts an association event.
func (h *Hub) StationAssociated(ctx context.Context, bssid, station string) {
	h.Broadcast("station.associated", map[string]string{"bssid": bssid, "station": station})
}

// StationDeauthenticated broadcasts a deauthentication event.
func (h *Hub) StationDeauthenticated(ctx context.Context, bssid, station, reason string) {
	h.Broadcast("station.deauthenticated", map[string]string{"bssid": bssid, "station": station, "reason": reason})
}
