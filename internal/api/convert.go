package api

import (
	"fmt"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Timestamp layouts accepted from the backend, most specific first. The engine
// serializes naive datetimes in its own local time, so zone-less forms are
// interpreted in the location configured with WithLocation (UTC by default).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO 8601 timestamp. Timestamps without an offset
// are taken to be in loc; a nil loc means UTC.
// Returns the zero time for empty or invalid input.
func ParseTimestamp(iso string, loc *time.Location) time.Time {
	if iso == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ToModel converts an OrderBookResponse to a snapshot. Levels with prices
// outside 0-100 or negative quantities make the whole payload malformed.
func (r *OrderBookResponse) ToModel(marketID string) (*model.OrderBookSnapshot, error) {
	if r.MarketID != "" && r.MarketID != marketID {
		return nil, fmt.Errorf("%w: order book for %q, requested %q", ErrMalformedPayload, r.MarketID, marketID)
	}

	snap := &model.OrderBookSnapshot{MarketID: marketID}
	sides := []struct {
		name model.BookSide
		in   []APIPriceLevel
		out  *[]model.PriceLevel
	}{
		{model.BookYesBids, r.YesBids, &snap.YesBids},
		{model.BookYesAsks, r.YesAsks, &snap.YesAsks},
		{model.BookNoBids, r.NoBids, &snap.NoBids},
		{model.BookNoAsks, r.NoAsks, &snap.NoAsks},
	}

	for _, s := range sides {
		levels, err := convertLevels(s.in)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, s.name, err)
		}
		*s.out = levels
	}

	return snap, nil
}

func convertLevels(in []APIPriceLevel) ([]model.PriceLevel, error) {
	out := make([]model.PriceLevel, 0, len(in))
	for i, l := range in {
		if l.Price < model.MinPrice || l.Price > model.MaxPrice {
			return nil, fmt.Errorf("level %d price %d out of range", i, l.Price)
		}
		if l.TotalQuantity < 0 {
			return nil, fmt.Errorf("level %d negative quantity %d", i, l.TotalQuantity)
		}
		out = append(out, model.PriceLevel{
			Price:         l.Price,
			TotalQuantity: l.TotalQuantity,
			OrderCount:    len(l.Orders),
		})
	}
	return out, nil
}

// ToModel converts an APITrade to model.Trade.
func (t *APITrade) ToModel(loc *time.Location) model.Trade {
	return model.Trade{
		TradeID:       t.TradeID,
		MarketID:      t.MarketID,
		Side:          model.Side(t.Side),
		Price:         t.Price,
		Quantity:      t.Quantity,
		BuyerAccount:  t.BuyerAccount,
		SellerAccount: t.SellerAccount,
		Timestamp:     ParseTimestamp(t.Timestamp, loc),
	}
}

// convertTrades converts a trade feed, preserving order. A null feed or a
// trade without an id is malformed; an empty feed is not.
func convertTrades(in []APITrade, loc *time.Location) ([]model.Trade, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: null trade feed", ErrMalformedPayload)
	}
	out := make([]model.Trade, 0, len(in))
	for i := range in {
		if in[i].TradeID == "" {
			return nil, fmt.Errorf("%w: trade %d has no trade_id", ErrMalformedPayload, i)
		}
		out = append(out, in[i].ToModel(loc))
	}
	return out, nil
}

// ToModel converts an APIOrder to model.Order.
func (o *APIOrder) ToModel(loc *time.Location) model.Order {
	return model.Order{
		OrderID:           o.OrderID,
		AccountID:         o.AccountID,
		MarketID:          o.MarketID,
		Side:              model.Side(o.Side),
		OrderType:         model.OrderType(o.OrderType),
		Price:             o.Price,
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		Status:            o.Status,
		Timestamp:         ParseTimestamp(o.Timestamp, loc),
	}
}

// ToModel converts a SubmitOrderResponse to model.OrderResult.
func (r *SubmitOrderResponse) ToModel(loc *time.Location) (*model.OrderResult, error) {
	if r.Order == nil || r.Order.OrderID == "" {
		return nil, fmt.Errorf("%w: response has no order", ErrMalformedPayload)
	}
	trades := make([]model.Trade, 0, len(r.Trades))
	for i := range r.Trades {
		trades = append(trades, r.Trades[i].ToModel(loc))
	}
	return &model.OrderResult{
		Order:  r.Order.ToModel(loc),
		Trades: trades,
	}, nil
}
