package poller

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/change"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

// Outcome is the per-dimension result of a tick.
type Outcome int

const (
	Unchanged Outcome = iota
	Updated
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// tick runs one fetch-compare-publish cycle. Both fetches are awaited
// together; neither dimension blocks publication of the other.
func (p *Poller) tick(gen uint64, reason string) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	var (
		ob     *model.OrderBookSnapshot
		trades []model.Trade
		obErr  error
		trErr  error
	)

	// Errors are kept per dimension rather than returned, so one failure
	// never cancels the other fetch.
	var g errgroup.Group
	g.Go(func() error {
		ob, obErr = p.source.GetOrderBook(ctx, p.cfg.MarketID)
		return nil
	})
	g.Go(func() error {
		trades, trErr = p.source.GetTrades(ctx, p.cfg.MarketID, p.cfg.TradesLimit)
		return nil
	})
	_ = g.Wait()

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	// The context check covers a tick started between Stop's invalidate and
	// its cancel, which captured the already-bumped generation.
	if gen != p.generation.Load() || p.ctx.Err() != nil {
		p.discarded.Add(1)
		p.logger.Debug("discarding tick results after teardown", "reason", reason)
		return
	}

	obOutcome := p.applyOrderBook(ob, obErr)
	trOutcome := p.applyTrades(trades, trErr)
	p.applyError(obErr, trErr)

	p.loading.Store(false)
	p.ticks.Add(1)
	p.metrics.ObserveTick(reason, time.Since(start))

	p.logger.Debug("tick complete",
		"reason", reason,
		"orderbook", obOutcome,
		"trades", trOutcome,
		"duration", time.Since(start),
	)
}

// applyOrderBook swaps in next if it differs from the last published book.
func (p *Poller) applyOrderBook(next *model.OrderBookSnapshot, err error) Outcome {
	if err == nil && next == nil {
		err = api.ErrMalformedPayload
	}
	if err != nil {
		return p.fetchFailed(metrics.DimensionOrderBook, err)
	}

	prev := p.orderBook.Load()
	if change.OrderBookEquivalent(prev, next) {
		return Unchanged
	}

	p.orderBook.Store(next)
	p.orderBookPublished.Add(1)
	p.metrics.Published(metrics.DimensionOrderBook)
	if p.publisher != nil {
		p.publisher.PublishOrderBook(next)
	}

	p.logger.Debug("order book updated",
		"sides", change.OrderBookDiff(prev, next),
		"depth", next.Depth(),
	)
	return Updated
}

// applyTrades swaps in next if its length or head trade differs from the last
// published feed. The whole feed is replaced; nothing is merged.
func (p *Poller) applyTrades(next []model.Trade, err error) Outcome {
	if err == nil && next == nil {
		err = api.ErrMalformedPayload
	}
	if err != nil {
		return p.fetchFailed(metrics.DimensionTrades, err)
	}

	var prev []model.Trade
	if t := p.trades.Load(); t != nil {
		prev = *t
	}
	if change.TradesEquivalent(prev, next) {
		return Unchanged
	}

	p.trades.Store(&next)
	p.tradesPublished.Add(1)
	p.metrics.Published(metrics.DimensionTrades)
	if p.publisher != nil {
		p.publisher.PublishTrades(next)
	}

	head, _ := model.HeadTrade(next)
	p.logger.Debug("trades updated",
		"count", len(next),
		"head", head.TradeID,
	)
	return Updated
}

// fetchFailed classifies a fetch error. Malformed payloads keep the last good
// value and count as unchanged.
func (p *Poller) fetchFailed(dimension string, err error) Outcome {
	if errors.Is(err, api.ErrMalformedPayload) {
		p.metrics.FetchFailed(dimension, "malformed")
		p.logger.Warn("ignoring malformed payload", "dimension", dimension, "err", err)
		return Unchanged
	}
	p.metrics.FetchFailed(dimension, "transport")
	p.logger.Warn("fetch failed", "dimension", dimension, "err", err)
	return Failed
}

// applyError updates the last-error signal. Transport failures set it; a tick
// with no error on either dimension clears it; malformed payloads leave it.
func (p *Poller) applyError(obErr, trErr error) {
	var transport []error
	for _, err := range []error{obErr, trErr} {
		if err != nil && !errors.Is(err, api.ErrMalformedPayload) {
			transport = append(transport, err)
		}
	}

	if len(transport) > 0 {
		err := errors.Join(transport...)
		p.lastErr.Store(&syncError{err: err})
		p.failures.Add(1)
		if p.publisher != nil {
			p.publisher.PublishError(err)
		}
		return
	}

	if obErr == nil && trErr == nil && p.lastErr.Load() != nil {
		p.lastErr.Store(nil)
		if p.publisher != nil {
			p.publisher.PublishError(nil)
		}
		p.logger.Info("sync recovered")
	}
}
