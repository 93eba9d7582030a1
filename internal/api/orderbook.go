package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/market-sync/internal/model"
)

// GetOrderBook fetches the aggregated order book for a market.
func (c *Client) GetOrderBook(ctx context.Context, marketID string) (*model.OrderBookSnapshot, error) {
	var resp OrderBookResponse
	if err := c.get(ctx, "/order-book/"+url.PathEscape(marketID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get order book %s: %w", marketID, err)
	}

	snap, err := resp.ToModel(marketID)
	if err != nil {
		return nil, fmt.Errorf("get order book %s: %w", marketID, err)
	}
	return snap, nil
}
