// Package model holds the value types shared across the stream server:
// ticker updates, trading signals, pump alerts, and the broadcast envelope
// delivered to subscribed clients.
package model
