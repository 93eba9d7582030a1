// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll ticks by outcome and tick latency
//   - Skipped ticks (timer fired while a tick was outstanding)
//   - Publications and fetch failures per dimension (orderbook, trades)
//   - Order submissions by result
package metrics
