package ws

import (
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Client is one live-query connection. Writes are serialized through the
// send channel; a saturated client drops frames instead of blocking the
// invalidation fan-out, and the next invalidation delivers a fresh result.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan any
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan any, 16),
	}
}

// Send never blocks and is safe against a concurrent Close: a push racing a
// disconnect is dropped.
func (c *Client) Send(msg any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		// drop if blocked
	}
}

func (c *Client) WritePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
