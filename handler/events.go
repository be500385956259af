package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/sessionguard/core/lifecycle"
	"github.com/dmitrymomot/sessionguard/core/logger"
)

// Event is the wire format pushed to connected clients.
type Event struct {
	Type             string `json:"type"`
	Reason           string `json:"reason,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	MinutesRemaining int    `json:"minutes_remaining,omitempty"`
}

// Event types.
const (
	EventSessionWarning = "session_warning"
	EventForcedLogout   = "forced_logout"
)

var _ lifecycle.Notifier = (*Hub)(nil)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *wsClient) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Hub fans lifecycle notifications out to every connected websocket client.
// It implements lifecycle.Notifier, so the controller's warning and forced
// logout callbacks reach the UI without the controller knowing about HTTP.
type Hub struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the client
// disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.ErrorContext(r.Context(), "websocket upgrade failed",
			logger.Error(err), logger.Component("events"))
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	// Read loop only to detect disconnect; clients never send payloads.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// SessionWarning broadcasts the expiry warning with the time remaining.
func (h *Hub) SessionWarning(remaining time.Duration) {
	h.broadcast(Event{
		Type:             EventSessionWarning,
		RemainingSeconds: int(remaining.Seconds()),
		MinutesRemaining: lifecycle.MinutesRemaining(remaining),
	})
}

// ForcedLogout broadcasts the forced logout reason after cleanup completed.
func (h *Hub) ForcedLogout(reason string) {
	h.broadcast(Event{
		Type:   EventForcedLogout,
		Reason: reason,
	})
}

func (h *Hub) broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to encode event", logger.Error(err), logger.Component("events"))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, drop the event rather than block the lifecycle.
		}
	}
}

// Close disconnects all clients. The hub accepts no new connections afterwards.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
