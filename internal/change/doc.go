// Package change decides whether a freshly polled payload differs from the
// last published one.
//
// Order book: two snapshots are equivalent when every side list has the same
// length and every position has the same price and total quantity. Order
// counts are ignored; the displayed aggregate is price and quantity only.
//
// Trades: two feeds are equivalent when they have the same length and the
// same most-recent trade id. The feed is oldest-first, so the most recent
// trade is the last element.
//
// A nil snapshot or nil feed means "never fetched" and is equivalent only to
// another nil. Comparisons are field based; encoded forms are never compared.
package change
