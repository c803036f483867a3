// wsprobe connects to a running streamd instance, subscribes to the given
// channels, and prints every frame it receives.
// Usage: go run ./cmd/wsprobe --url ws://localhost:8080/ws tickers ticker:BTCUSDT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "streamd WebSocket URL")
	pingEvery := flag.Duration("ping", 30*time.Second, "application-level ping interval")
	flag.Parse()

	channels := flag.Args()
	if len(channels) == 0 {
		channels = []string{"tickers"}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, *url, nil)
	if err != nil {
		logger.Error("dial failed", "url", *url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "url", *url)

	for _, ch := range channels {
		msg, _ := json.Marshal(map[string]string{"type": "subscribe", "channel": ch})
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			logger.Error("subscribe write failed", "channel", ch, "error", err)
			os.Exit(1)
		}
		logger.Info("subscribe sent", "channel", ch)
	}

	// Periodic application pings so the round trip stays observable.
	go func() {
		ticker := time.NewTicker(*pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				msg, _ := json.Marshal(map[string]string{"type": "ping"})
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Warn("ping write failed", "error", err)
					return
				}
			}
		}
	}()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Error("read failed", "error", err)
				os.Exit(1)
			}
		}
		fmt.Println(string(data))
	}
}
