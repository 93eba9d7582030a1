// Package gateway serves the synchronized market view over HTTP.
//
// Routes:
//
//	GET  /api/v1/state   latest order book, trades, sync error and loading flag
//	GET  /api/v1/form    session order form
//	POST /api/v1/orders  apply fields to the form and submit it
//	GET  /ws             websocket stream of updates, starting with a snapshot
//	GET  /health         gateway and backend liveness
//	GET  /metrics        Prometheus exposition
package gateway
