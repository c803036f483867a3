// Package router implements the Message Router component.
//
// The Message Router:
//   - Decodes inbound client frames into typed commands
//   - Dispatches subscribe/unsubscribe/ping against the Channel Registry
//   - Replies to the originating connection only, one reply per message
//   - Drops malformed input silently (no error echo)
package router
