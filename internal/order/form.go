package order

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rickgao/market-sync/internal/model"
)

// Session defaults.
const (
	DefaultMarketID = "default_market"
	DefaultPrice    = 50
	DefaultQuantity = 10
)

// Defaults are the values a Form starts with. Price and Quantity are also
// what the form resets to after a successful submission.
type Defaults struct {
	AccountID string
	MarketID  string
	Price     int
	Quantity  int
}

// SessionDefaults returns the defaults with a freshly generated account id.
func SessionDefaults() Defaults {
	return Defaults{
		AccountID: NewAccountID(),
		MarketID:  DefaultMarketID,
		Price:     DefaultPrice,
		Quantity:  DefaultQuantity,
	}
}

// NewAccountID returns a throwaway session account id, "user_" followed by
// eight hex digits.
func NewAccountID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Patch is a partial update of the form. Nil fields are left unchanged.
type Patch struct {
	AccountID *string          `json:"account_id,omitempty"`
	MarketID  *string          `json:"market_id,omitempty"`
	Side      *model.Side      `json:"side,omitempty"`
	OrderType *model.OrderType `json:"order_type,omitempty"`
	Price     *int             `json:"price,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
}

// FormState is a point-in-time copy of the form.
type FormState struct {
	Request model.OrderRequest `json:"request"`
	Message string             `json:"message,omitempty"`
}

// Form is the order entry state of one session.
type Form struct {
	mu       sync.Mutex
	defaults Defaults
	req      model.OrderRequest
	message  string
}

// NewForm creates a form. Empty account and market fall back to a generated
// account id and DefaultMarketID; a non-positive quantity to DefaultQuantity.
func NewForm(d Defaults) *Form {
	if d.AccountID == "" {
		d.AccountID = NewAccountID()
	}
	if d.MarketID == "" {
		d.MarketID = DefaultMarketID
	}
	if d.Quantity <= 0 {
		d.Quantity = DefaultQuantity
	}

	return &Form{
		defaults: d,
		req: model.OrderRequest{
			AccountID: d.AccountID,
			MarketID:  d.MarketID,
			Side:      model.SideYes,
			OrderType: model.OrderTypeBuy,
			Price:     d.Price,
			Quantity:  d.Quantity,
		},
	}
}

// Apply merges p into the form.
func (f *Form) Apply(p Patch) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p.AccountID != nil {
		f.req.AccountID = *p.AccountID
	}
	if p.MarketID != nil {
		f.req.MarketID = *p.MarketID
	}
	if p.Side != nil {
		f.req.Side = *p.Side
	}
	if p.OrderType != nil {
		f.req.OrderType = *p.OrderType
	}
	if p.Price != nil {
		f.req.Price = *p.Price
	}
	if p.Quantity != nil {
		f.req.Quantity = *p.Quantity
	}
}

// Request returns the current field values.
func (f *Form) Request() model.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

// State returns the fields and the last submission message.
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState{Request: f.req, Message: f.message}
}

// Submit places the current fields through s. On failure every field is kept
// for resubmission; on success price and quantity reset to the defaults.
// The returned message is also kept as the form's status line.
func (f *Form) Submit(ctx context.Context, s *Submitter) (*model.OrderResult, string, error) {
	req := f.Request()

	result, err := s.Submit(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.message = ErrorMessage(err)
		return nil, f.message, err
	}

	f.req.Price = f.defaults.Price
	f.req.Quantity = f.defaults.Quantity
	f.message = Summary(result)
	return result, f.message, nil
}
