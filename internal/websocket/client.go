package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/dsemenov/wakeup-alarm/internal/logger"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// pingPeriod is the keep-alive cadence; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound messages; clients only listen.
	maxMessageSize = 512
	// sendBufferSize is how many pending events a slow client may queue.
	sendBufferSize = 16
)

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	// hub is the broadcast set this client belongs to.
	hub *Hub
	// conn is the underlying websocket connection.
	conn *websocket.Conn
	// send buffers outbound event payloads.
	send chan []byte
}

// Serve registers a freshly upgraded connection with the hub and starts its
// read and write pumps. It returns immediately.
func Serve(hub *Hub, conn *websocket.Conn) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	hub.register(client)

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames so pings and close frames are processed.
// The event stream is one-way; inbound payloads are ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.DebugKV(c.hub.ctx, "Read failed", "error", err)
			}

			return
		}
	}
}

// writePump forwards hub events to the peer and keeps the connection alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				// Hub dropped us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
