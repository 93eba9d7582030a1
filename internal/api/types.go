package api

import "encoding/json"

// OrderBookResponse from GET /order-book/{market_id}
type OrderBookResponse struct {
	MarketID string          `json:"market_id"`
	YesBids  []APIPriceLevel `json:"yes_bids"`
	YesAsks  []APIPriceLevel `json:"yes_asks"`
	NoBids   []APIPriceLevel `json:"no_bids"`
	NoAsks   []APIPriceLevel `json:"no_asks"`
}

// APIPriceLevel is one aggregated level. The engine includes the full resting
// orders; only their count is kept.
type APIPriceLevel struct {
	Price         int               `json:"price"`
	TotalQuantity int               `json:"total_quantity"`
	Orders        []json.RawMessage `json:"orders"`
}

// APITrade represents a trade from the backend.
type APITrade struct {
	TradeID       string `json:"trade_id"`
	MarketID      string `json:"market_id"`
	BuyerAccount  string `json:"buyer_account"`
	SellerAccount string `json:"seller_account"`
	Side          string `json:"side"`
	Price         int    `json:"price"`
	Quantity      int    `json:"quantity"`
	Timestamp     string `json:"timestamp"` // ISO 8601, zone optional
}

// APIOrder represents an order from the backend.
type APIOrder struct {
	OrderID           string `json:"order_id"`
	AccountID         string `json:"account_id"`
	MarketID          string `json:"market_id"`
	Side              string `json:"side"`
	OrderType         string `json:"order_type"`
	Price             int    `json:"price"`
	Quantity          int    `json:"quantity"`
	FilledQuantity    int    `json:"filled_quantity"`
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	RemainingQuantity int    `json:"remaining_quantity"`
}

// SubmitOrderResponse from POST /orders
type SubmitOrderResponse struct {
	Order  *APIOrder  `json:"order"`
	Trades []APITrade `json:"trades"`
}

// HealthStatus from GET /health
type HealthStatus struct {
	Status string `json:"status"`
}

// Healthy reports whether the backend declared itself healthy.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}
