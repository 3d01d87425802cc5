package notify

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sos-dispatch/internal/models"
)

const maxConnections = 100

// Hub tracks websocket watchers of the live responder position stream.
type Hub struct {
	mutex       sync.Mutex
	connections map[*websocket.Conn]bool
	logger      *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// AddConnection registers a watcher.
func (h *Hub) AddConnection(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.connections) >= maxConnections {
		h.logger.Warnf("Max websocket connections reached, rejecting watcher")
		conn.Close()
		return
	}
	h.connections[conn] = true
	h.logger.Infof("Added websocket watcher (total: %d)", len(h.connections))
}

// RemoveConnection drops a watcher.
func (h *Hub) RemoveConnection(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		h.logger.Infof("Removed websocket watcher (remaining: %d)", len(h.connections))
	}
}

// BroadcastPosition sends a responder position update to every watcher.
// Write failures evict the broken connection.
func (h *Hub) BroadcastPosition(r models.Responder) {
	message, err := json.Marshal(map[string]any{
		"type":      "position",
		"responder": r,
	})
	if err != nil {
		h.logger.Errorf("Failed to marshal position update: %v", err)
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Errorf("Failed to send position update: %v", err)
			conn.Close()
			delete(h.connections, conn)
		}
	}
}
