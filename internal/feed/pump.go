package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

type pricePoint struct {
	at    time.Time
	price float64
}

// PumpDetector watches per-symbol price history and flags moves that exceed
// the configured threshold inside the detection window. A per-symbol
// cooldown suppresses repeat alerts for the same run-up.
type PumpDetector struct {
	window       time.Duration
	thresholdPct float64
	cooldown     time.Duration

	now func() time.Time

	mu        sync.Mutex
	history   map[string][]pricePoint
	lastAlert map[string]time.Time
}

// NewPumpDetector creates a detector from config.
func NewPumpDetector(cfg config.PumpConfig) *PumpDetector {
	return &PumpDetector{
		window:       cfg.Window,
		thresholdPct: cfg.ThresholdPct,
		cooldown:     cfg.Cooldown,
		now:          time.Now,
		history:      make(map[string][]pricePoint),
		lastAlert:    make(map[string]time.Time),
	}
}

// Observe records one ticker update and reports whether it completes a pump.
func (d *PumpDetector) Observe(tk model.Ticker) (model.PumpAlert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	points := append(d.history[tk.Symbol], pricePoint{at: now, price: tk.Price})

	// Prune everything older than the window; the oldest remaining point
	// is the baseline.
	cutoff := now.Add(-d.window)
	start := 0
	for start < len(points)-1 && points[start].at.Before(cutoff) {
		start++
	}
	points = points[start:]
	d.history[tk.Symbol] = points

	baseline := points[0].price
	if len(points) < 2 || baseline <= 0 {
		return model.PumpAlert{}, false
	}

	changePct := (tk.Price - baseline) / baseline * 100
	if changePct < d.thresholdPct {
		return model.PumpAlert{}, false
	}

	if last, ok := d.lastAlert[tk.Symbol]; ok && now.Sub(last) < d.cooldown {
		return model.PumpAlert{}, false
	}
	d.lastAlert[tk.Symbol] = now

	return model.PumpAlert{
		ID:         uuid.New(),
		Symbol:     tk.Symbol,
		Price:      tk.Price,
		ChangePct:  changePct,
		WindowSec:  int(d.window.Seconds()),
		DetectedAt: now.UnixMilli(),
	}, true
}
