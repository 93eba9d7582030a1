// Package model defines the data types shared by the transport, synchronization
// and submission layers.
//
// Conventions:
//   - Prices: integer cents (0-100). Price 0 on a SELL is a market order.
//   - Quantities: integer contracts, >= 1 on requests.
//   - Snapshots are immutable once published. A newer snapshot replaces the
//     older reference; nothing mutates a published value in place.
package model
