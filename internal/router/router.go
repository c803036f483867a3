package router

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tradewatch/internal/channel"
)

// Router turns one inbound client message into exactly one registry call and
// one reply to the originating connection. It is stateless across messages;
// all subscription state lives in the Channel Registry.
type Router struct {
	registry *channel.Registry
	logger   *slog.Logger

	mu       sync.RWMutex
	received int64
	dropped  int64
	rejected int64
	replies  int64
}

// NewRouter creates a new Message Router.
func NewRouter(registry *channel.Registry, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		logger:   logger.With("component", "message_router"),
	}
}

// Handle processes a single raw message from conn. Malformed input is
// dropped without a reply; every recognized message produces exactly one
// reply to conn and nothing else.
func (r *Router) Handle(conn channel.Conn, data []byte) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		// Unparseable, non-object, or missing type: silently dropped.
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.logger.Debug("dropping malformed message", "conn", conn.ID())
		return
	}

	switch msg.Type {
	case TypeSubscribe:
		r.handleSubscribe(conn, msg.Channel)

	case TypeUnsubscribe:
		r.handleUnsubscribe(conn, msg.Channel)

	case TypePing:
		r.send(conn, Reply{
			Type:      TypePong,
			Timestamp: time.Now().UnixMilli(),
		})

	default:
		r.sendError(conn, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

// Stats returns current counters.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		MessagesReceived: r.received,
		MessagesDropped:  r.dropped,
		Rejected:         r.rejected,
		Replies:          r.replies,
	}
}

func (r *Router) handleSubscribe(conn channel.Conn, name string) {
	if !channel.IsValidChannel(name) {
		r.sendError(conn, fmt.Sprintf("Invalid channel: %s", name))
		return
	}
	if !r.registry.Subscribe(conn, name) {
		r.sendError(conn, fmt.Sprintf("Already subscribed to %s", name))
		return
	}
	r.send(conn, Reply{Type: TypeSubscribed, Channel: name})
}

func (r *Router) handleUnsubscribe(conn channel.Conn, name string) {
	if !r.registry.Unsubscribe(conn, name) {
		r.sendError(conn, fmt.Sprintf("Not subscribed to %s", name))
		return
	}
	r.send(conn, Reply{Type: TypeUnsubscribed, Channel: name})
}

func (r *Router) sendError(conn channel.Conn, text string) {
	r.mu.Lock()
	r.rejected++
	r.mu.Unlock()
	r.send(conn, Reply{Type: TypeError, Message: text})
}

func (r *Router) send(conn channel.Conn, reply Reply) {
	data, err := json.Marshal(reply)
	if err != nil {
		r.logger.Warn("failed to marshal reply", "type", reply.Type, "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		r.logger.Debug("failed to send reply",
			"conn", conn.ID(),
			"type", reply.Type,
			"error", err,
		)
		return
	}
	r.mu.Lock()
	r.replies++
	r.mu.Unlock()
}
