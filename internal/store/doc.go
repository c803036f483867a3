// Package store provides PostgreSQL access for the stream server.
//
// It owns a single pgx connection pool and covers:
//   - the symbol watchlist that seeds the upstream market-data subscription
//   - audit inserts for generated trading signals and pump alerts
//
// Broadcast fan-out itself never touches the database.
package store
