package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradewatch/internal/channel"
	"tradewatch/internal/config"
	"tradewatch/internal/feed"
	"tradewatch/internal/router"
	"tradewatch/internal/server"
	"tradewatch/internal/store"
	"tradewatch/internal/version"
)

// defaultWatchlist is used when the database watchlist is empty.
var defaultWatchlist = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}

func main() {
	configPath := flag.String("config", "configs/streamd.local.yaml", "path to config file")
	flag.Parse()

	// Local development credentials; absent in production.
	godotenv.Load()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting streamd",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	db, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("database connected")

	// Load the watchlist that seeds the upstream subscription
	watchlist, err := db.LoadWatchlist(ctx)
	if err != nil {
		logger.Error("failed to load watchlist", "error", err)
		os.Exit(1)
	}

	symbols := make([]string, 0, len(watchlist))
	for _, ws := range watchlist {
		symbols = append(symbols, ws.Symbol)
	}
	if len(symbols) == 0 {
		logger.Warn("watchlist is empty, using default symbols", "symbols", defaultWatchlist)
		symbols = defaultWatchlist
	}

	// Core: registry, router, WebSocket server
	registry := channel.NewRegistry(logger)
	rtr := router.NewRouter(registry, logger)
	srv := server.New(cfg.Server, registry, rtr, logger)

	// Feed: upstream ingest, pump detector, signal generator
	pumps := feed.NewPumpDetector(cfg.Pumps)
	signals := feed.NewSignalGenerator(cfg.Signals)
	marketFeed := feed.NewFeed(cfg.Upstream, registry, pumps, signals, db, symbols, logger)

	if err := marketFeed.Start(ctx); err != nil {
		logger.Error("failed to start market feed", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		marketFeed.Stop(stopCtx)
	}()

	// HTTP server: WebSocket endpoint + health + stats
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WSPath, srv.ServeWS)
	mux.HandleFunc("/healthz", healthHandler(db, marketFeed))
	mux.HandleFunc("/stats", statsHandler(registry, rtr, srv, marketFeed))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("listening",
			"addr", httpSrv.Addr,
			"ws_path", cfg.Server.WSPath,
		)
		if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
	srv.Stop()

	logger.Info("streamd stopped")
}

// parseLevel maps the config level string to a slog level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// healthHandler reports component health.
func healthHandler(db *store.Store, marketFeed *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := db.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["database"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["database"] = "connected"
		}

		feedStats := marketFeed.Stats()
		health.Components["feed"] = feedStats
		if !feedStats.Connected {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}

// statsHandler exposes registry, router, server, and feed counters.
func statsHandler(registry *channel.Registry, rtr *router.Router, srv *server.Server, marketFeed *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"subscriptions": registry.GetStats(),
			"router":        rtr.Stats(),
			"server":        srv.Stats(),
			"feed":          marketFeed.Stats(),
		})
	}
}
