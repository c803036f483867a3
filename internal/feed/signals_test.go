package feed

import (
	"testing"

	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

func observeAll(g *SignalGenerator, symbol string, prices []float64) []model.Signal {
	var out []model.Signal
	for _, p := range prices {
		if sig, ok := g.Observe(model.Ticker{Symbol: symbol, Price: p, Ts: 1700000000000}); ok {
			out = append(out, sig)
		}
	}
	return out
}

func TestSignalGeneratorNeedsFullWindow(t *testing.T) {
	g := NewSignalGenerator(config.SignalsConfig{FastPeriod: 2, SlowPeriod: 4})

	signals := observeAll(g, "BTCUSDT", []float64{100, 101, 102})
	if len(signals) != 0 {
		t.Errorf("got %d signals before slow window filled, want 0", len(signals))
	}
}

func TestSignalGeneratorEmitsOnCross(t *testing.T) {
	g := NewSignalGenerator(config.SignalsConfig{FastPeriod: 2, SlowPeriod: 4})

	// Rising prices establish a buy stance (no signal yet), then a sharp
	// drop pulls the fast average below the slow one: one sell signal.
	prices := []float64{100, 101, 102, 103, 104, 90, 80}
	signals := observeAll(g, "ETHUSDT", prices)

	if len(signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(signals))
	}
	sig := signals[0]
	if sig.Side != model.SideSell {
		t.Errorf("signal side = %q, want %q", sig.Side, model.SideSell)
	}
	if sig.Symbol != "ETHUSDT" {
		t.Errorf("signal symbol = %q, want ETHUSDT", sig.Symbol)
	}
	if sig.Reason != "ma_cross 2/4" {
		t.Errorf("signal reason = %q, want %q", sig.Reason, "ma_cross 2/4")
	}
}

func TestSignalGeneratorAlternatesSides(t *testing.T) {
	g := NewSignalGenerator(config.SignalsConfig{FastPeriod: 2, SlowPeriod: 4})

	// Down-cross then up-cross: exactly one sell followed by one buy.
	prices := []float64{100, 101, 102, 103, 90, 85, 120, 130}
	signals := observeAll(g, "SOLUSDT", prices)

	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}
	if signals[0].Side != model.SideSell {
		t.Errorf("first signal side = %q, want sell", signals[0].Side)
	}
	if signals[1].Side != model.SideBuy {
		t.Errorf("second signal side = %q, want buy", signals[1].Side)
	}
}

func TestSignalGeneratorRepeatedTicksNoDuplicate(t *testing.T) {
	g := NewSignalGenerator(config.SignalsConfig{FastPeriod: 2, SlowPeriod: 4})

	prices := []float64{100, 101, 102, 103, 90, 85, 80, 75, 70}
	signals := observeAll(g, "XRPUSDT", prices)

	if len(signals) != 1 {
		t.Errorf("got %d signals for a single sustained downtrend, want 1", len(signals))
	}
}
