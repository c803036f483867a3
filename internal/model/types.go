package model

import "github.com/google/uuid"

// Update is the envelope for every broadcast payload. Type tells clients
// how to decode Data ("ticker", "signal", "pump", "notification").
type Update struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Ticker is a single market price update from the upstream feed.
type Ticker struct {
	Symbol    string  `json:"symbol"`     // e.g. "BTCUSDT"
	Price     float64 `json:"price"`      // last trade price
	ChangePct float64 `json:"change_pct"` // 24h change percent
	Volume    float64 `json:"volume"`     // 24h base-asset volume
	Ts        int64   `json:"ts"`         // exchange timestamp (ms since epoch)
}

// SignalSide is the direction of a trading signal.
type SignalSide string

const (
	SideBuy  SignalSide = "buy"
	SideSell SignalSide = "sell"
)

// Signal is a generated trading signal.
type Signal struct {
	ID        uuid.UUID  `json:"id"`
	Symbol    string     `json:"symbol"`
	Side      SignalSide `json:"side"`
	Price     float64    `json:"price"`
	Reason    string     `json:"reason"` // e.g. "ma_cross 7/25"
	CreatedAt int64      `json:"created_at"` // ms since epoch
}

// PumpAlert is emitted when a symbol moves more than the configured
// threshold inside the detection window.
type PumpAlert struct {
	ID         uuid.UUID `json:"id"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ChangePct  float64   `json:"change_pct"` // move over the window
	WindowSec  int       `json:"window_sec"`
	DetectedAt int64     `json:"detected_at"` // ms since epoch
}

// Notification is a free-form server notice for subscribed clients.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Level string `json:"level"` // "info", "warning"
	Ts    int64  `json:"ts"`    // ms since epoch
}

// WatchSymbol is one row of the symbol watchlist that seeds the upstream
// subscription.
type WatchSymbol struct {
	Symbol  string
	Enabled bool
}
