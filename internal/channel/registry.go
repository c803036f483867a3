package channel

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Static channels clients can subscribe to without parameters.
const (
	ChannelTickers = "tickers"
	ChannelSignals = "signals"
	ChannelPumps   = "pumps"
)

// TickerPrefix is the prefix of parameterized per-symbol channels.
const TickerPrefix = "ticker:"

var tickerChannelRe = regexp.MustCompile(`^ticker:[A-Z0-9]+$`)

// staticChannels is the fixed set of non-parameterized channel names.
var staticChannels = map[string]struct{}{
	ChannelTickers: {},
	ChannelSignals: {},
	ChannelPumps:   {},
}

// Conn is the connection handle the registry tracks. The registry never
// manages connection lifecycle; it only needs a stable identity, a
// non-blocking send primitive, and a liveness flag.
type Conn interface {
	// ID returns a stable identifier unique to this connection.
	ID() string

	// Send writes one text frame to the connection.
	Send(data []byte) error

	// IsOpen reports whether the connection is still live.
	IsOpen() bool
}

// Stats summarizes current subscriber counts.
type Stats struct {
	// Channels maps each static channel name to its subscriber count.
	Channels map[string]int `json:"channels"`

	// TickerSymbols maps each subscribed symbol to its subscriber count.
	TickerSymbols map[string]int `json:"ticker_symbols"`
}

// Registry owns the bidirectional mapping between channel names and
// subscribed connections. Safe for concurrent use; a single mutex guards
// both indexes so paired updates are atomic.
type Registry struct {
	logger *slog.Logger

	mu sync.RWMutex
	// channel name → connection ID → connection
	subscribers map[string]map[string]Conn
	// connection ID → set of channel names
	clientChannels map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:         logger.With("component", "channel_registry"),
		subscribers:    make(map[string]map[string]Conn),
		clientChannels: make(map[string]map[string]struct{}),
	}
}

// IsValidChannel reports whether name is a static channel or a well-formed
// "ticker:SYMBOL" channel.
func IsValidChannel(name string) bool {
	if _, ok := staticChannels[name]; ok {
		return true
	}
	return tickerChannelRe.MatchString(name)
}

// Subscribe adds conn to the channel's subscriber set. Returns false without
// mutating state if the channel name is invalid or conn is already a member.
func (r *Registry) Subscribe(conn Conn, name string) bool {
	if !IsValidChannel(name) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[name][conn.ID()]; ok {
		return false
	}

	if r.subscribers[name] == nil {
		r.subscribers[name] = make(map[string]Conn)
	}
	r.subscribers[name][conn.ID()] = conn

	if r.clientChannels[conn.ID()] == nil {
		r.clientChannels[conn.ID()] = make(map[string]struct{})
	}
	r.clientChannels[conn.ID()][name] = struct{}{}

	r.logger.Debug("subscribed",
		"conn", conn.ID(),
		"channel", name,
		"subscribers", len(r.subscribers[name]),
	)
	return true
}

// Unsubscribe removes conn from the channel's subscriber set. Returns false
// if the channel has no subscribers or conn is not among them.
func (r *Registry) Unsubscribe(conn Conn, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.removeLocked(conn.ID(), name) {
		return false
	}

	r.logger.Debug("unsubscribed",
		"conn", conn.ID(),
		"channel", name,
	)
	return true
}

// UnsubscribeAll removes conn from every channel it belongs to. Idempotent;
// must be called by the connection lifecycle code on every disconnect.
func (r *Registry) UnsubscribeAll(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels, ok := r.clientChannels[conn.ID()]
	if !ok {
		return
	}

	count := len(channels)
	for name := range channels {
		r.removeLocked(conn.ID(), name)
	}

	r.logger.Debug("unsubscribed all",
		"conn", conn.ID(),
		"channels", count,
	)
}

// removeLocked deletes the membership from both indexes and prunes empty
// sets. Caller must hold r.mu.
func (r *Registry) removeLocked(connID, name string) bool {
	conns, ok := r.subscribers[name]
	if !ok {
		return false
	}
	if _, ok := conns[connID]; !ok {
		return false
	}

	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.subscribers, name)
	}

	if channels, ok := r.clientChannels[connID]; ok {
		delete(channels, name)
		if len(channels) == 0 {
			delete(r.clientChannels, connID)
		}
	}
	return true
}

// GetSubscribers returns the connections currently subscribed to the
// channel. Unknown channel yields an empty slice. Order is unspecified.
func (r *Registry) GetSubscribers(name string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.subscribers[name]))
	for _, c := range r.subscribers[name] {
		conns = append(conns, c)
	}
	return conns
}

// GetClientChannels returns the channel names conn is subscribed to.
func (r *Registry) GetClientChannels(conn Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clientChannels[conn.ID()]))
	for name := range r.clientChannels[conn.ID()] {
		names = append(names, name)
	}
	return names
}

// GetChannelCount returns the number of subscribers on a channel.
func (r *Registry) GetChannelCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[name])
}

// Broadcast serializes payload once and sends the identical bytes to every
// live subscriber of the channel. Closed connections found in the set are
// skipped, not removed; stale-entry cleanup belongs to UnsubscribeAll.
// Returns the number of connections the message was sent to.
func (r *Registry) Broadcast(name string, payload any) int {
	// Snapshot under the lock so concurrent subscribe/unsubscribe is never
	// observed as a torn update.
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.subscribers[name]))
	for _, c := range r.subscribers[name] {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	if len(conns) == 0 {
		return 0
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("failed to marshal broadcast payload",
			"channel", name,
			"error", err,
		)
		return 0
	}

	sent := 0
	for _, c := range conns {
		if !c.IsOpen() {
			continue
		}
		if err := c.Send(data); err != nil {
			r.logger.Debug("broadcast send failed",
				"channel", name,
				"conn", c.ID(),
				"error", err,
			)
			continue
		}
		sent++
	}
	return sent
}

// GetStats reports subscriber counts for every static channel plus a
// per-symbol count for each subscribed "ticker:SYMBOL" channel.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Channels:      make(map[string]int, len(staticChannels)),
		TickerSymbols: make(map[string]int),
	}
	for name := range staticChannels {
		stats.Channels[name] = len(r.subscribers[name])
	}
	for name, conns := range r.subscribers {
		if symbol, ok := strings.CutPrefix(name, TickerPrefix); ok {
			stats.TickerSymbols[symbol] = len(conns)
		}
	}
	return stats
}
