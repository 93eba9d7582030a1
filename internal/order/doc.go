// Package order implements the order submission workflow: local validation,
// a single non-retried submission, and an immediate refresh of the synchronized
// view once the engine accepts the order.
//
// Form holds the per-session entry state. It keeps every field across a
// failed submission and resets only price and quantity after a successful one.
package order
