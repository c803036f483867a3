// Package channel implements the Channel Registry component.
//
// The Channel Registry:
//   - Tracks which connections are subscribed to which logical channels
//   - Validates channel names (static channels + "ticker:SYMBOL")
//   - Fans broadcast payloads out to every live subscriber of a channel
//   - Reports per-channel and per-symbol subscriber counts
package channel
