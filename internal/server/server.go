package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tradewatch/internal/channel"
	"tradewatch/internal/config"
	"tradewatch/internal/router"
)

// Stats summarizes the server's connection state.
type Stats struct {
	Connected int `json:"connected"`
}

// Server owns the WebSocket endpoint: it upgrades requests, runs one read
// loop per client, and guarantees UnsubscribeAll on every disconnect.
type Server struct {
	cfg      config.ServerConfig
	registry *channel.Registry
	router   *router.Router
	logger   *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool

	wg sync.WaitGroup
}

// New creates a WebSocket server.
func New(cfg config.ServerConfig, registry *channel.Registry, rtr *router.Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		registry: registry,
		router:   rtr,
		logger:   logger.With("component", "ws_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The mobile clients connect from app webviews with no Origin
			// header; subscriptions carry no credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
	}
}

// ServeWS upgrades an HTTP request and serves the connection until it
// closes. Intended to be registered on the configured ws_path.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, s.cfg.SendBuffer, s.cfg.WriteTimeout, s.cfg.PingInterval, s.logger)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		client.Close()
		return
	}
	s.clients[client.ID()] = client
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("client connected",
		"conn", client.ID(),
		"remote", r.RemoteAddr,
		"clients", count,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()

	s.readLoop(client)
}

// Stop closes every live connection and waits for their pumps to exit.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	s.wg.Wait()

	s.logger.Info("websocket server stopped", "closed_clients", len(clients))
}

// Stats returns current connection counts.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Connected: len(s.clients)}
}

// readLoop feeds inbound frames to the router until the connection closes,
// then removes every channel membership the client held.
func (s *Server) readLoop(client *Client) {
	defer func() {
		s.registry.UnsubscribeAll(client)
		client.Close()

		s.mu.Lock()
		delete(s.clients, client.ID())
		count := len(s.clients)
		s.mu.Unlock()

		s.logger.Info("client disconnected", "conn", client.ID(), "clients", count)
	}()

	pongWait := 2 * s.cfg.PingInterval
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", "conn", client.ID(), "error", err)
			}
			return
		}
		s.router.Handle(client, data)
	}
}
