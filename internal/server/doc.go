// Package server implements the client-facing WebSocket endpoint.
//
// Each accepted connection gets a Client wrapper with a generated session
// id, a buffered write pump, and a read loop that feeds the Message Router.
// When a connection closes, the server removes all of its channel
// memberships from the registry.
package server
