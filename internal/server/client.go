package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Errors
var (
	ErrClientClosed = errors.New("client closed")
)

// Client wraps one accepted WebSocket connection. It satisfies the
// registry's Conn interface: stable id, non-blocking send, liveness flag.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	writeTimeout time.Duration
	pingInterval time.Duration

	// Outbound frames, drained by the write pump.
	send chan []byte
	done chan struct{}

	mu   sync.RWMutex
	open bool

	closeOnce sync.Once
}

// newClient creates a client around an upgraded connection.
func newClient(conn *websocket.Conn, sendBuffer int, writeTimeout, pingInterval time.Duration, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:           id,
		conn:         conn,
		logger:       logger.With("conn", id),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		open:         true,
	}
}

// ID returns the generated session id.
func (c *Client) ID() string {
	return c.id
}

// IsOpen reports whether the connection is still live.
func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Send queues one text frame for delivery. It never blocks: when the
// buffer is full the frame is dropped at this layer.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	open := c.open
	c.mu.RUnlock()
	if !open {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, dropping frame")
		return nil
	}
}

// Close marks the client closed and tears down the connection. Safe to
// call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()

		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	})
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with periodic pings. Runs until Close or a write error.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.writeTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping failed", "error", err)
				c.Close()
				return
			}
		}
	}
}
