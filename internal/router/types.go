package router

import (
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Config holds configuration for the Router.
type Config struct {
	BufferSize    int // Initial per-subscriber buffer (default: 16)
	MaxBufferSize int // Per-subscriber cap before oldest updates drop (default: 1024)
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize:    16,
		MaxBufferSize: 1024,
	}
}

// Kind identifies what an Update carries.
type Kind string

const (
	KindOrderBook Kind = "orderbook"
	KindTrades    Kind = "trades"
	KindError     Kind = "error"
)

// Update is one publication from the sync loop. Exactly one payload field
// is meaningful, selected by Kind. A KindError update with an empty Error
// clears a previous error.
type Update struct {
	Kind      Kind                     `json:"kind"`
	Version   uint64                   `json:"version"`
	OrderBook *model.OrderBookSnapshot `json:"order_book,omitempty"`
	Trades    []model.Trade            `json:"trades,omitempty"`
	Error     string                   `json:"error,omitempty"`
	At        time.Time                `json:"at"`
}

// State is the latest published view.
type State struct {
	Version   uint64                   `json:"version"`
	OrderBook *model.OrderBookSnapshot `json:"order_book"`
	Trades    []model.Trade            `json:"trades"`
	Error     string                   `json:"error,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// Stats contains runtime statistics.
type Stats struct {
	Published   int64 // Updates accepted from the sync loop
	Delivered   int64 // Updates enqueued to subscribers
	Dropped     int64 // Updates evicted from slow subscribers
	Pending     int   // Updates queued and not yet received
	Subscribers int
}
