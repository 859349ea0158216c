package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/arena-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

type connection struct {
	id   entity.ConnID
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

// Hub keeps the live connections and delivers events to them.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[entity.ConnID]*connection
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		connections: make(map[entity.ConnID]*connection),
	}
}

// Notify - queues an event for conn. Events for unknown connections are dropped.
func (that *Hub) Notify(conn entity.ConnID, event string, payload any) {
	log := that.logger.With("method", "Notify", "connID", conn, "event", event)

	data, err := encode(event, payload)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	c, ok := that.connections[conn]
	if !ok {
		log.Debug("connection is gone, event dropped")
		return
	}

	select {
	case c.send <- data:
	default:
		log.Warn("send buffer full, closing connection")
		_ = c.conn.Close()
	}
}

// Count - returns the number of live connections.
func (that *Hub) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.connections)
}

func (that *Hub) register(c *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[c.id] = c
}

func (that *Hub) unregister(c *connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.connections[c.id]; ok && current == c {
		delete(that.connections, c.id)
	}

	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// closeAll - closes every live connection; their read pumps then run the disconnect path.
func (that *Hub) closeAll() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, c := range that.connections {
		_ = c.conn.Close()
	}
}
