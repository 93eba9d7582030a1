package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

// Source fetches the two polled resources. Satisfied by *api.Client.
type Source interface {
	GetOrderBook(ctx context.Context, marketID string) (*model.OrderBookSnapshot, error)
	GetTrades(ctx context.Context, marketID string, limit int) ([]model.Trade, error)
}

// Publisher receives changed snapshots and the last-error signal. A nil error
// passed to PublishError clears a previously published one.
type Publisher interface {
	PublishOrderBook(ob *model.OrderBookSnapshot)
	PublishTrades(trades []model.Trade)
	PublishError(err error)
}

// Config holds poller configuration.
type Config struct {
	MarketID    string        // Market to synchronize
	Interval    time.Duration // Poll interval (default: 4s)
	Timeout     time.Duration // Bound on one tick's fetches (default: 5s)
	TradesLimit int           // Trade window requested per tick (default: 20)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MarketID:    "default_market",
		Interval:    4 * time.Second,
		Timeout:     5 * time.Second,
		TradesLimit: 20,
	}
}

// Tick reasons.
const (
	ReasonStart    = "start"
	ReasonInterval = "interval"
	ReasonRefresh  = "refresh"
)

// Stats contains runtime counters.
type Stats struct {
	Ticks              int64 // Completed ticks whose results were applied
	Skipped            int64 // Timer firings dropped while a tick was in flight
	Discarded          int64 // Ticks whose results arrived after teardown
	OrderBookPublished int64
	TradesPublished    int64
	Failures           int64 // Ticks with at least one transport failure
}

// Option configures a Poller.
type Option func(*Poller)

// WithMetrics records tick and publication metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// Poller keeps the last published order book and trade feed of one market in
// sync with the backend.
type Poller struct {
	cfg       Config
	source    Source
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	// Last published values. Written only while holding applyMu.
	orderBook atomic.Pointer[model.OrderBookSnapshot]
	trades    atomic.Pointer[[]model.Trade]
	lastErr   atomic.Pointer[syncError]
	loading   atomic.Bool

	// applyMu serializes post-fetch mutation against teardown. generation is
	// bumped under it on teardown; a tick whose captured generation no
	// longer matches publishes nothing.
	applyMu    sync.Mutex
	generation atomic.Uint64

	refresh  chan struct{}
	inFlight atomic.Bool

	ticks              atomic.Int64
	skipped            atomic.Int64
	discarded          atomic.Int64
	orderBookPublished atomic.Int64
	tradesPublished    atomic.Int64
	failures           atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type syncError struct {
	err error
}

// New creates a new Poller. A nil publisher is allowed; values are then only
// available through the accessors.
func New(cfg Config, source Source, publisher Publisher, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MarketID == "" {
		cfg.MarketID = def.MarketID
	}
	if cfg.TradesLimit <= 0 {
		cfg.TradesLimit = def.TradesLimit
	}

	p := &Poller{
		cfg:       cfg,
		source:    source,
		publisher: publisher,
		logger:    logger.With("market", cfg.MarketID),
		refresh:   make(chan struct{}, 1),
	}
	p.loading.Store(true)

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins the polling loop. The first tick runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	if p.ctx != nil {
		return errors.New("poller already started")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("sync loop started",
		"interval", p.cfg.Interval,
		"trades_limit", p.cfg.TradesLimit,
	)

	return nil
}

// Stop cancels all future ticks and waits for the loop to exit. Results of a
// fetch still in flight are discarded.
func (p *Poller) Stop(ctx context.Context) error {
	p.invalidate()
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("sync loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh requests one immediate tick outside the normal cadence. Signals
// arriving before the loop consumes a pending one are coalesced into it.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// OrderBook returns the last published order book, or nil before the first
// successful fetch.
func (p *Poller) OrderBook() *model.OrderBookSnapshot {
	return p.orderBook.Load()
}

// Trades returns the last published trade feed, or nil before the first
// successful fetch.
func (p *Poller) Trades() []model.Trade {
	if t := p.trades.Load(); t != nil {
		return *t
	}
	return nil
}

// LastError returns the error of the most recent failed tick, or nil once a
// tick succeeds on both dimensions.
func (p *Poller) LastError() error {
	if e := p.lastErr.Load(); e != nil {
		return e.err
	}
	return nil
}

// Loading reports whether the first tick has yet to complete.
func (p *Poller) Loading() bool {
	return p.loading.Load()
}

// InFlight reports whether a tick is currently outstanding.
func (p *Poller) InFlight() bool {
	return p.inFlight.Load()
}

// Stats returns current counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Ticks:              p.ticks.Load(),
		Skipped:            p.skipped.Load(),
		Discarded:          p.discarded.Load(),
		OrderBookPublished: p.orderBookPublished.Load(),
		TradesPublished:    p.tradesPublished.Load(),
		Failures:           p.failures.Load(),
	}
}

// invalidate bumps the generation so in-flight ticks become no-ops.
func (p *Poller) invalidate() {
	p.applyMu.Lock()
	p.generation.Add(1)
	p.applyMu.Unlock()
}

// run is the main polling loop. It is the only goroutine that starts ticks,
// so at most one is ever outstanding.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	done := make(chan struct{}, 1)
	pendingRefresh := false

	start := func(reason string) {
		p.inFlight.Store(true)
		gen := p.generation.Load()
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.tick(gen, reason)
			done <- struct{}{}
		}()
	}

	// Poll immediately on start.
	start(ReasonStart)

	for {
		select {
		case <-p.ctx.Done():
			p.invalidate()
			return

		case <-ticker.C:
			if p.inFlight.Load() {
				p.skipped.Add(1)
				p.metrics.TickSkipped()
				p.logger.Debug("tick skipped, previous tick still in flight")
				continue
			}
			start(ReasonInterval)

		case <-p.refresh:
			if p.inFlight.Load() {
				// Runs as soon as the current tick completes, so the
				// requester sees state fetched after its signal.
				pendingRefresh = true
				continue
			}
			start(ReasonRefresh)

		case <-done:
			p.inFlight.Store(false)
			if pendingRefresh {
				pendingRefresh = false
				start(ReasonRefresh)
			}
		}
	}
}
