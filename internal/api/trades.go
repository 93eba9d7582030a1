package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rickgao/market-sync/internal/model"
)

// GetTrades fetches the most recent trades for a market, oldest first.
// A limit <= 0 leaves the window to the backend default.
func (c *Client) GetTrades(ctx context.Context, marketID string, limit int) ([]model.Trade, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp []APITrade
	if err := c.get(ctx, "/trades/"+url.PathEscape(marketID), query, &resp); err != nil {
		return nil, fmt.Errorf("get trades %s: %w", marketID, err)
	}

	trades, err := convertTrades(resp, c.location)
	if err != nil {
		return nil, fmt.Errorf("get trades %s: %w", marketID, err)
	}
	return trades, nil
}
