package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tradewatch/internal/channel"
	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

// Recorder persists generated signals and pump alerts. A nil Recorder
// disables persistence; broadcasts still happen.
type Recorder interface {
	InsertSignal(ctx context.Context, sig model.Signal) error
	InsertPumpAlert(ctx context.Context, alert model.PumpAlert) error
}

// Stats provides feed runtime counters.
type Stats struct {
	Connected      bool  `json:"connected"`
	TickersHandled int64 `json:"tickers_handled"`
	PumpsDetected  int64 `json:"pumps_detected"`
	SignalsEmitted int64 `json:"signals_emitted"`
}

// Feed drives the upstream connection and publishes ticker updates, pump
// alerts, and trading signals into the Channel Registry.
type Feed struct {
	cfg      config.UpstreamConfig
	registry *channel.Registry
	pumps    *PumpDetector
	signals  *SignalGenerator
	recorder Recorder
	symbols  []string
	logger   *slog.Logger

	client *UpstreamClient

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.RWMutex
	tickersHandled int64
	pumpsDetected  int64
	signalsEmitted int64
}

// NewFeed creates the feed for the given watchlist symbols.
func NewFeed(
	cfg config.UpstreamConfig,
	registry *channel.Registry,
	pumps *PumpDetector,
	signals *SignalGenerator,
	recorder Recorder,
	symbols []string,
	logger *slog.Logger,
) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		ctx:      context.Background(),
		cfg:      cfg,
		registry: registry,
		pumps:    pumps,
		signals:  signals,
		recorder: recorder,
		symbols:  symbols,
		logger:   logger.With("component", "feed"),
	}
}

// Start connects upstream, subscribes the watchlist, and begins publishing.
func (f *Feed) Start(ctx context.Context) error {
	f.ctx, f.cancel = context.WithCancel(ctx)

	f.client = NewUpstreamClient(f.cfg, f.logger)
	if err := f.client.Connect(f.ctx); err != nil {
		return err
	}
	if err := f.client.Subscribe(f.symbols); err != nil {
		return err
	}

	f.wg.Add(1)
	go f.run()

	f.logger.Info("feed started",
		"url", f.cfg.URL,
		"symbols", len(f.symbols),
	)
	return nil
}

// Stop shuts the feed down.
func (f *Feed) Stop(ctx context.Context) error {
	f.logger.Info("stopping feed")

	if f.cancel != nil {
		f.cancel()
	}
	f.mu.RLock()
	client := f.client
	f.mu.RUnlock()
	if client != nil {
		client.Close()
	}

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		f.logger.Info("feed stopped")
	case <-ctx.Done():
		f.logger.Warn("feed stop timed out")
	}
	return nil
}

// Stats returns current counters.
func (f *Feed) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	connected := f.client != nil && f.client.IsConnected()
	return Stats{
		Connected:      connected,
		TickersHandled: f.tickersHandled,
		PumpsDetected:  f.pumpsDetected,
		SignalsEmitted: f.signalsEmitted,
	}
}

func (f *Feed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return

		case err := <-f.client.Errors():
			f.logger.Warn("upstream error", "error", err)
			if !f.reconnect() {
				return
			}

		case data, ok := <-f.client.Messages():
			if !ok {
				return
			}
			f.handle(data)
		}
	}
}

// handle decodes one upstream frame and fans the update out.
func (f *Feed) handle(data []byte) {
	tk, ok := ParseMiniTicker(data)
	if !ok {
		// Subscribe acks and unknown event types.
		return
	}

	f.mu.Lock()
	f.tickersHandled++
	f.mu.Unlock()

	f.registry.Broadcast(channel.ChannelTickers, model.Update{Type: "ticker", Data: tk})
	f.registry.Broadcast(channel.TickerPrefix+strings.ToUpper(tk.Symbol), model.Update{Type: "ticker", Data: tk})

	if alert, ok := f.pumps.Observe(tk); ok {
		f.mu.Lock()
		f.pumpsDetected++
		f.mu.Unlock()

		f.logger.Info("pump detected",
			"symbol", alert.Symbol,
			"change_pct", alert.ChangePct,
			"price", alert.Price,
		)
		f.registry.Broadcast(channel.ChannelPumps, model.Update{Type: "pump", Data: alert})
		f.record(func(ctx context.Context) error { return f.recorder.InsertPumpAlert(ctx, alert) })
	}

	if sig, ok := f.signals.Observe(tk); ok {
		f.mu.Lock()
		f.signalsEmitted++
		f.mu.Unlock()

		f.logger.Info("signal emitted",
			"symbol", sig.Symbol,
			"side", sig.Side,
			"price", sig.Price,
		)
		f.registry.Broadcast(channel.ChannelSignals, model.Update{Type: "signal", Data: sig})
		f.record(func(ctx context.Context) error { return f.recorder.InsertSignal(ctx, sig) })
	}
}

// record runs one audit insert with a short timeout, off the hot path.
func (f *Feed) record(insert func(context.Context) error) {
	if f.recorder == nil {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(f.ctx, 5*time.Second)
		defer cancel()
		if err := insert(ctx); err != nil {
			f.logger.Warn("audit insert failed", "error", err)
		}
	}()
}

// reconnect replaces the upstream client with exponential backoff. Returns
// false when the feed is shutting down.
func (f *Feed) reconnect() bool {
	wait := f.cfg.ReconnectBaseDelay
	maxWait := f.cfg.ReconnectMaxDelay

	for {
		select {
		case <-f.ctx.Done():
			return false
		case <-time.After(wait):
		}

		f.logger.Info("attempting upstream reconnection")

		f.client.Close()
		f.mu.Lock()
		f.client = NewUpstreamClient(f.cfg, f.logger)
		f.mu.Unlock()

		if err := f.client.Connect(f.ctx); err != nil {
			f.logger.Warn("reconnection failed", "error", err)

			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
			continue
		}

		if err := f.client.Subscribe(f.symbols); err != nil {
			f.logger.Warn("resubscribe failed", "error", err)
			continue
		}

		f.logger.Info("upstream reconnected")
		return true
	}
}
