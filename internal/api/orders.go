package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/market-sync/internal/model"
)

// SubmitOrder places a new order. It is never retried: a failed POST may or
// may not have reached the engine.
func (c *Client) SubmitOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	var resp SubmitOrderResponse
	if err := c.post(ctx, "/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}

	result, err := resp.ToModel(c.location)
	if err != nil {
		return nil, fmt.Errorf("submit order: %w", err)
	}
	return result, nil
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var resp APIOrder
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	if resp.OrderID == "" {
		return nil, fmt.Errorf("get order %s: %w: missing order_id", orderID, ErrMalformedPayload)
	}

	order := resp.ToModel(c.location)
	return &order, nil
}
