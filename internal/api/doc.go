// Package api provides the HTTP client for the matching engine backend.
//
// Endpoints:
//   - POST /orders                 submit an order, returns the order and its trades
//   - GET  /orders/{order_id}      fetch one order
//   - GET  /order-book/{market_id} aggregated book, four side lists
//   - GET  /trades/{market_id}     recent trades, oldest first, ?limit=N
//   - GET  /health                 liveness
//
// Every call is bounded by the client timeout. Failures surface as
// *TransportError; bodies that do not decode wrap ErrMalformedPayload.
package api
