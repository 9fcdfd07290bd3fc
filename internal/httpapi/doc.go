// Package httpapi exposes the wallet session over HTTP.
//
// Routes:
//   - GET  /health
//   - GET  /state
//   - POST /connect (rate limited per client)
//   - POST /disconnect
//   - GET  /balances and /balances/{asset}
//   - GET  /events (server-sent state updates)
//   - GET  <metrics path>
package httpapi
