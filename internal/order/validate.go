package order

import (
	"fmt"

	"github.com/rickgao/market-sync/internal/model"
)

// Validation error codes.
const (
	CodeMarketOrderBuyNotAllowed = "MARKET_ORDER_BUY_NOT_ALLOWED"
)

// ValidationError is a local rejection. No request is sent when one is
// returned.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks the rules enforced before submission. Market orders
// (price 0) are only allowed for SELL. Price range and quantity are left to
// the engine.
func Validate(req model.OrderRequest) error {
	if req.IsMarketOrder() && req.OrderType == model.OrderTypeBuy {
		return &ValidationError{
			Code:    CodeMarketOrderBuyNotAllowed,
			Message: "Market orders (price=0) are only allowed for SELL orders",
		}
	}
	return nil
}
