package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
)

// Client is one authenticated WebSocket connection. The gateway creates it
// after the identity check and destroys it on disconnect; the registry and
// the call coordinator only ever hold references.
type Client struct {
	ID      string // connection id, distinct from the user id
	UserID  string
	Profile model.Profile
	Conn    *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient creates a client for an upgraded connection. conn may be nil in
// tests; only the handler pumps touch it.
func NewClient(userID string, profile model.Profile, conn *websocket.Conn, sendBuf int) *Client {
	if sendBuf <= 0 {
		sendBuf = 256
	}
	return &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		Profile: profile,
		Conn:    conn,
		send:    make(chan []byte, sendBuf),
	}
}

// Enqueue queues a frame for delivery without blocking. Returns false when
// the client is closed or its buffer is full; a slow client loses frames
// rather than stalling the room.
func (c *Client) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Outbox returns the channel the write pump drains. It is closed by Close.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// Close closes the outbox exactly once. Safe to call concurrently with
// Enqueue.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}
