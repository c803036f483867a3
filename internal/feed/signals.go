package feed

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

// SignalGenerator emits a buy/sell signal whenever the fast moving average
// crosses the slow one for a symbol.
type SignalGenerator struct {
	fast int
	slow int

	mu       sync.Mutex
	prices   map[string][]float64 // most recent slow-period prices per symbol
	lastSide map[string]model.SignalSide
}

// NewSignalGenerator creates a generator from config. SlowPeriod must
// exceed FastPeriod (enforced by config validation).
func NewSignalGenerator(cfg config.SignalsConfig) *SignalGenerator {
	return &SignalGenerator{
		fast:     cfg.FastPeriod,
		slow:     cfg.SlowPeriod,
		prices:   make(map[string][]float64),
		lastSide: make(map[string]model.SignalSide),
	}
}

// Observe records one ticker update and reports whether it produces a
// crossover signal.
func (g *SignalGenerator) Observe(tk model.Ticker) (model.Signal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prices := append(g.prices[tk.Symbol], tk.Price)
	if len(prices) > g.slow {
		prices = prices[len(prices)-g.slow:]
	}
	g.prices[tk.Symbol] = prices

	if len(prices) < g.slow {
		return model.Signal{}, false
	}

	fastMA := mean(prices[len(prices)-g.fast:])
	slowMA := mean(prices)

	side := model.SideSell
	if fastMA > slowMA {
		side = model.SideBuy
	}

	// Emit only on a change of direction, not on every tick. The first
	// full window just establishes direction.
	prev, ok := g.lastSide[tk.Symbol]
	g.lastSide[tk.Symbol] = side
	if !ok || prev == side {
		return model.Signal{}, false
	}

	return model.Signal{
		ID:        uuid.New(),
		Symbol:    tk.Symbol,
		Side:      side,
		Price:     tk.Price,
		Reason:    fmt.Sprintf("ma_cross %d/%d", g.fast, g.slow),
		CreatedAt: tk.Ts,
	}, true
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
