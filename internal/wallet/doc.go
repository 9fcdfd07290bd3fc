// Package wallet implements the wallet session core.
//
// The session core:
//   - Owns the session state machine (disconnected, connected, demo_connected)
//   - Falls back to a deterministic demo session when no provider is reachable
//   - Serves asset balances from the provider or the demo table
//   - Creates remote-call actors, or inert demo actors in demo mode
//   - Fans out state changes to subscribers and events to sinks
package wallet
