package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradewatch/internal/config"
	"tradewatch/internal/model"
)

// Store wraps the PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect creates the connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LoadWatchlist returns the enabled symbols the upstream feed should stream.
func (s *Store) LoadWatchlist(ctx context.Context) ([]model.WatchSymbol, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, enabled FROM watchlist WHERE enabled ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []model.WatchSymbol
	for rows.Next() {
		var ws model.WatchSymbol
		if err := rows.Scan(&ws.Symbol, &ws.Enabled); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		symbols = append(symbols, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return symbols, nil
}

// InsertSignal records a generated trading signal.
func (s *Store) InsertSignal(ctx context.Context, sig model.Signal) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO signals (id, symbol, side, price, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))`,
		sig.ID, sig.Symbol, string(sig.Side), sig.Price, sig.Reason, sig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// InsertPumpAlert records a detected pump.
func (s *Store) InsertPumpAlert(ctx context.Context, alert model.PumpAlert) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pump_alerts (id, symbol, price, change_pct, window_sec, detected_at)
		 VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))`,
		alert.ID, alert.Symbol, alert.Price, alert.ChangePct, alert.WindowSec, alert.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pump alert: %w", err)
	}
	return nil
}
