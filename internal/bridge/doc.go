// Package bridge implements a wallet provider over a WebSocket wallet bridge.
//
// The bridge is a local process (typically a browser extension relay) that
// owns the real wallet. This package:
//   - Dials the bridge lazily and redials after the connection drops
//   - Correlates JSON-RPC style requests and responses by ID
//   - Exposes every wallet capability through Provider
package bridge
