// Package feed implements the upstream market-data side of the server.
//
// The feed:
//   - Maintains the WebSocket connection to the exchange stream
//   - Reconnects with exponential backoff
//   - Decodes mini-ticker frames and broadcasts them to channel subscribers
//   - Runs the pump detector and moving-average signal generator
package feed
