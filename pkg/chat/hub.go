package chat

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 16
)

// Envelope is the frame exchanged over the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type client struct {
	id     string
	userID primitive.ObjectID
	conn   *websocket.Conn
	send   chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// Hub holds the live connections by connection id.
type Hub struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	clients map[string]*client
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// remove forgets the connection and stops its write loop. It's safe to call more than once.
func (h *Hub) remove(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connectionID]; ok {
		delete(h.clients, connectionID)
		close(c.send)
	}
}

// Emit queues the event for the connection without blocking. Events for unknown connections or
// connections with a full buffer are dropped.
func (h *Hub) Emit(connectionID string, event string, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal event", "event", event, "error", err)
		return false
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("Failed to marshal envelope", "event", event, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	if !ok {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		h.logger.Warn("Dropping event for slow connection", "event", event, "connectionId", connectionID)
		return false
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes every connection. The read loops observe the closed connections and clean up.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		_ = c.conn.Close()
	}
}

func (c *client) readLoop(handle func(envelope Envelope)) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var envelope Envelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			return
		}
		handle(envelope)
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
