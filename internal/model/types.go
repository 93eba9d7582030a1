package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the contract outcome an order or trade refers to.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// OrderType is the direction of an order.
type OrderType string

const (
	OrderTypeBuy  OrderType = "BUY"
	OrderTypeSell OrderType = "SELL"
)

// Order statuses reported by the matching engine.
const (
	StatusOpen            = "OPEN"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
)

// Price bounds in cents.
const (
	MinPrice = 0
	MaxPrice = 100
)

// -----------------------------------------------------------------------------
// Order Book
// -----------------------------------------------------------------------------

// PriceLevel is one aggregated price point in the order book.
type PriceLevel struct {
	Price         int `json:"price"`          // Cents, 0-100
	TotalQuantity int `json:"total_quantity"` // Sum of remaining quantity at this price
	OrderCount    int `json:"order_count"`    // Number of resting orders contributing
}

// OrderBookSnapshot is the aggregated book of one market at a point in time.
// Each side list is ordered best-price-first.
type OrderBookSnapshot struct {
	MarketID string       `json:"market_id"`
	YesBids  []PriceLevel `json:"yes_bids"`
	YesAsks  []PriceLevel `json:"yes_asks"`
	NoBids   []PriceLevel `json:"no_bids"`
	NoAsks   []PriceLevel `json:"no_asks"`
}

// BookSide names one of the four side lists of a snapshot.
type BookSide string

const (
	BookYesBids BookSide = "yes_bids"
	BookYesAsks BookSide = "yes_asks"
	BookNoBids  BookSide = "no_bids"
	BookNoAsks  BookSide = "no_asks"
)

// BookSides lists the side names in canonical order.
var BookSides = [4]BookSide{BookYesBids, BookYesAsks, BookNoBids, BookNoAsks}

// Levels returns the level list for the named side.
func (s *OrderBookSnapshot) Levels(side BookSide) []PriceLevel {
	switch side {
	case BookYesBids:
		return s.YesBids
	case BookYesAsks:
		return s.YesAsks
	case BookNoBids:
		return s.NoBids
	case BookNoAsks:
		return s.NoAsks
	}
	return nil
}

// Depth returns the total number of levels across all four sides.
func (s *OrderBookSnapshot) Depth() int {
	return len(s.YesBids) + len(s.YesAsks) + len(s.NoBids) + len(s.NoAsks)
}

// -----------------------------------------------------------------------------
// Trades
// -----------------------------------------------------------------------------

// Trade is an execution between a buyer and a seller.
type Trade struct {
	TradeID       string    `json:"trade_id"`
	MarketID      string    `json:"market_id"`
	Side          Side      `json:"side"`
	Price         int       `json:"price"`
	Quantity      int       `json:"quantity"`
	BuyerAccount  string    `json:"buyer_account"`
	SellerAccount string    `json:"seller_account"`
	Timestamp     time.Time `json:"timestamp"`
}

// HeadTrade returns the most recent trade of a feed. Feeds are ordered
// oldest-first, so the head is the last element.
func HeadTrade(trades []Trade) (Trade, bool) {
	if len(trades) == 0 {
		return Trade{}, false
	}
	return trades[len(trades)-1], true
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

// OrderRequest is a new order as submitted to the matching engine.
type OrderRequest struct {
	AccountID string    `json:"account_id"`
	MarketID  string    `json:"market_id"`
	Side      Side      `json:"side"`
	OrderType OrderType `json:"order_type"`
	Price     int       `json:"price"`
	Quantity  int       `json:"quantity"`
}

// IsMarketOrder reports whether the request is a price-0 order.
func (r OrderRequest) IsMarketOrder() bool {
	return r.Price == 0
}

// Notional returns price * quantity in dollars.
func (r OrderRequest) Notional() decimal.Decimal {
	return decimal.NewFromInt(int64(r.Price)).
		Mul(decimal.NewFromInt(int64(r.Quantity))).
		Shift(-2)
}

// Order is the engine's view of an accepted order.
type Order struct {
	OrderID           string    `json:"order_id"`
	AccountID         string    `json:"account_id"`
	MarketID          string    `json:"market_id"`
	Side              Side      `json:"side"`
	OrderType         OrderType `json:"order_type"`
	Price             int       `json:"price"`
	Quantity          int       `json:"quantity"`
	FilledQuantity    int       `json:"filled_quantity"`
	RemainingQuantity int       `json:"remaining_quantity"`
	Status            string    `json:"status"`
	Timestamp         time.Time `json:"timestamp"`
}

// OrderResult is the outcome of a submission: the echoed order and any
// trades it executed immediately.
type OrderResult struct {
	Order  Order   `json:"order"`
	Trades []Trade `json:"trades"`
}
