package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

// Placer sends an order to the matching engine. Satisfied by *api.Client.
type Placer interface {
	SubmitOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
}

// Refresher requests one immediate sync tick. Satisfied by *poller.Poller.
type Refresher interface {
	Refresh()
}

// Submission results recorded in metrics.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithMetrics records submission results.
func WithMetrics(m *metrics.Metrics) SubmitterOption {
	return func(s *Submitter) {
		s.metrics = m
	}
}

// Submitter validates and places orders.
type Submitter struct {
	placer    Placer
	refresher Refresher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewSubmitter creates a Submitter. refresher may be nil.
func NewSubmitter(placer Placer, refresher Refresher, logger *slog.Logger, opts ...SubmitterOption) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Submitter{
		placer:    placer,
		refresher: refresher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates req and places it exactly once. On success the sync loop is
// asked for one immediate tick so the submitter sees its own trades.
func (s *Submitter) Submit(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	if err := Validate(req); err != nil {
		s.metrics.OrderSubmitted(ResultRejected)
		s.logger.Info("order rejected locally", "account", req.AccountID, "err", err)
		return nil, err
	}

	result, err := s.placer.SubmitOrder(ctx, req)
	if err != nil {
		s.metrics.OrderSubmitted(ResultFailed)
		s.logger.Warn("order submission failed",
			"account", req.AccountID,
			"market", req.MarketID,
			"err", err,
		)
		return nil, err
	}
	if result == nil {
		s.metrics.OrderSubmitted(ResultFailed)
		return nil, errors.New("submit order: empty result")
	}

	s.metrics.OrderSubmitted(ResultAccepted)
	s.logger.Info("order submitted",
		"order_id", result.Order.OrderID,
		"market", req.MarketID,
		"side", req.Side,
		"type", req.OrderType,
		"price", req.Price,
		"quantity", req.Quantity,
		"notional", req.Notional().StringFixed(2),
		"trades", len(result.Trades),
	)

	if s.refresher != nil {
		s.refresher.Refresh()
	}
	return result, nil
}

// Summary renders the confirmation shown after a successful submission.
func Summary(result *model.OrderResult) string {
	id := result.Order.OrderID
	if len(id) > 8 {
		id = id[:8]
	}
	msg := fmt.Sprintf("Order submitted! ID: %s...", id)
	switch n := len(result.Trades); {
	case n == 1:
		msg += " 1 trade executed."
	case n > 1:
		msg += fmt.Sprintf(" %d trades executed.", n)
	}
	return msg
}
