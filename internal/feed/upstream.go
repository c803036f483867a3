package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// UpstreamClient is a single WebSocket connection to the exchange stream.
type UpstreamClient struct {
	cfg    config.UpstreamConfig
	logger *slog.Logger

	conn *websocket.Conn

	// Output channels
	messages chan []byte
	errors   chan error
	done     chan struct{}

	// Write serialization
	writeMu sync.Mutex

	// Request ids for SUBSCRIBE frames
	reqID int64

	// State
	mu         sync.RWMutex
	connected  bool
	lastPingAt time.Time
	closed     bool
}

// NewUpstreamClient creates a client; Connect must be called before use.
func NewUpstreamClient(cfg config.UpstreamConfig, logger *slog.Logger) *UpstreamClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpstreamClient{
		cfg:      cfg,
		logger:   logger,
		messages: make(chan []byte, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and
// heartbeat loops.
func (c *UpstreamClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.lastPingAt = time.Now()
	c.mu.Unlock()

	// The exchange sends pings; answering keeps the session alive.
	conn.SetPingHandler(func(data string) error {
		c.mu.Lock()
		c.lastPingAt = time.Now()
		c.mu.Unlock()

		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(data),
			time.Now().Add(time.Second),
		)
	})

	go c.readLoop()
	go c.heartbeatLoop()

	c.logger.Debug("upstream connected", "url", c.cfg.URL)
	return nil
}

// Close gracefully closes the connection.
func (c *UpstreamClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	close(c.done)

	if c.conn != nil {
		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return c.conn.Close()
	}
	return nil
}

// Subscribe requests mini-ticker streams for the given symbols.
func (c *UpstreamClient) Subscribe(symbols []string) error {
	params := make([]string, 0, len(symbols))
	for _, s := range symbols {
		params = append(params, strings.ToLower(s)+"@miniTicker")
	}

	req := map[string]any{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     atomic.AddInt64(&c.reqID, 1),
	}
	data, _ := json.Marshal(req)
	return c.send(data)
}

// Messages returns the channel of raw upstream frames.
func (c *UpstreamClient) Messages() <-chan []byte {
	return c.messages
}

// Errors returns the channel of connection errors.
func (c *UpstreamClient) Errors() <-chan error {
	return c.errors
}

// IsConnected returns the current connection state.
func (c *UpstreamClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *UpstreamClient) send(data []byte) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	c.mu.RUnlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *UpstreamClient) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			// Ignore errors after Close() is called
			select {
			case <-c.done:
				return
			default:
				select {
				case c.errors <- err:
				default:
				}
				return
			}
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		default:
			c.logger.Warn("upstream buffer full, dropping frame")
		}
	}
}

func (c *UpstreamClient) heartbeatLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			lastPing := c.lastPingAt
			c.mu.RUnlock()

			if time.Since(lastPing) > c.cfg.PingTimeout {
				c.logger.Warn("no ping from upstream, connection stale",
					"last_ping", lastPing,
					"timeout", c.cfg.PingTimeout,
				)
				select {
				case c.errors <- ErrStaleConnection:
				default:
				}
				return
			}
		}
	}
}

// miniTickerWire is the upstream 24h mini-ticker frame. Combined streams
// wrap it in {"stream": ..., "data": {...}}.
type miniTickerWire struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Close     string `json:"c"`
	Open      string `json:"o"`
	Volume    string `json:"v"`
}

type combinedWire struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// ParseMiniTicker decodes a mini-ticker frame into a model.Ticker. Returns
// false for frames of any other type (subscribe acks, other events).
func ParseMiniTicker(data []byte) (model.Ticker, bool) {
	var combined combinedWire
	if err := json.Unmarshal(data, &combined); err == nil && len(combined.Data) > 0 {
		data = combined.Data
	}

	var wire miniTickerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.Ticker{}, false
	}
	if wire.EventType != "24hrMiniTicker" || wire.Symbol == "" {
		return model.Ticker{}, false
	}

	price, err := strconv.ParseFloat(wire.Close, 64)
	if err != nil {
		return model.Ticker{}, false
	}
	open, err := strconv.ParseFloat(wire.Open, 64)
	if err != nil {
		return model.Ticker{}, false
	}
	volume, _ := strconv.ParseFloat(wire.Volume, 64)

	changePct := 0.0
	if open != 0 {
		changePct = (price - open) / open * 100
	}

	return model.Ticker{
		Symbol:    wire.Symbol,
		Price:     price,
		ChangePct: changePct,
		Volume:    volume,
		Ts:        wire.EventTime,
	}, true
}
