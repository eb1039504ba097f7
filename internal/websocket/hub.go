package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/scheduler"
)

// Hub maintains the set of connected presentation clients and fans alarm
// events out to them. Sends never block: a client that cannot keep up is
// dropped.
type Hub struct {
	// ctx scopes hub logging.
	ctx context.Context

	// mu protects clients.
	mu sync.RWMutex
	// clients is the set of active connections.
	clients map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		ctx:     logger.WithName(ctx, "ws-hub"),
		clients: make(map[*Client]struct{}),
	}
}

// Publish implements scheduler.Sink: it serializes the event and broadcasts
// it to every connected client.
func (h *Hub) Publish(event scheduler.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorKV(h.ctx, "Encoding event failed", "error", err)

		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Client is blocked or gone; drop it rather than stall the alarm.
			go h.unregister(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// register adds a client to the broadcast set.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}

	logger.InfoKV(h.ctx, "Client connected", "remote", c.conn.RemoteAddr().String())
}

// unregister removes a client and closes its send channel. Idempotent.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)

	logger.InfoKV(h.ctx, "Client disconnected", "remote", c.conn.RemoteAddr().String())
}
