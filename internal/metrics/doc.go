// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Session events by type
//   - Current session status
//   - Provider round-trip latency per event type
//   - Journal write and drop counts
package metrics
