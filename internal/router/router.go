package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

// Router records what the sync loop publishes and fans every update out to
// subscribers. It satisfies poller.Publisher.
type Router struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	state  State
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	published int64
	delivered int64
	dropped   int64 // from subscriptions already closed
}

// New creates a Router.
func New(cfg Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = def.MaxBufferSize
	}

	return &Router{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		subs:   make(map[uint64]*Subscription),
	}
}

// PublishOrderBook records a changed order book.
func (r *Router) PublishOrderBook(ob *model.OrderBookSnapshot) {
	r.publish(Update{Kind: KindOrderBook, OrderBook: ob})
}

// PublishTrades records a changed trade feed.
func (r *Router) PublishTrades(trades []model.Trade) {
	r.publish(Update{Kind: KindTrades, Trades: trades})
}

// PublishError records the last sync error. nil clears it.
func (r *Router) PublishError(err error) {
	u := Update{Kind: KindError}
	if err != nil {
		u.Error = err.Error()
	}
	r.publish(u)
}

func (r *Router) publish(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	u.At = r.now()
	r.state.Version++
	u.Version = r.state.Version
	r.state.UpdatedAt = u.At

	switch u.Kind {
	case KindOrderBook:
		r.state.OrderBook = u.OrderBook
	case KindTrades:
		r.state.Trades = u.Trades
	case KindError:
		r.state.Error = u.Error
	}
	r.published++

	for _, sub := range r.subs {
		if sub.buf.Send(u) {
			r.delivered++
		}
	}

	r.logger.Debug("update published",
		"kind", u.Kind,
		"version", u.Version,
		"subscribers", len(r.subs),
	)
}

// Latest returns the current state.
func (r *Router) Latest() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Subscribe registers a new subscriber. Updates published from now on are
// delivered in order; a subscriber that falls more than the configured
// maximum behind loses its oldest updates.
func (r *Router) Subscribe() *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	sub := &Subscription{
		id:     r.nextID,
		router: r,
		buf:    NewGrowableBuffer[Update](r.cfg.BufferSize, r.cfg.MaxBufferSize),
	}
	if r.closed {
		sub.buf.Close()
		return sub
	}
	r.subs[sub.id] = sub

	r.logger.Debug("subscriber added", "id", sub.id, "subscribers", len(r.subs))
	return sub
}

// Close closes every subscription. Later publications are ignored.
func (r *Router) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[uint64]*Subscription)
	r.closed = true
	for _, sub := range subs {
		r.dropped += sub.buf.Stats().Dropped
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.buf.Close()
	}
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dropped := r.dropped
	pending := 0
	for _, sub := range r.subs {
		dropped += sub.buf.Stats().Dropped
		pending += sub.Pending()
	}
	return Stats{
		Published:   r.published,
		Delivered:   r.delivered,
		Dropped:     dropped,
		Pending:     pending,
		Subscribers: len(r.subs),
	}
}

func (r *Router) unsubscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[sub.id]; !ok {
		return
	}
	delete(r.subs, sub.id)
	r.dropped += sub.buf.Stats().Dropped
	r.logger.Debug("subscriber removed", "id", sub.id, "subscribers", len(r.subs))
}

// Subscription is one consumer's ordered view of updates.
type Subscription struct {
	id     uint64
	router *Router
	buf    *GrowableBuffer[Update]
	once   sync.Once
}

// Receive blocks until the next update. It returns false once the
// subscription is closed and drained.
func (s *Subscription) Receive() (Update, bool) {
	return s.buf.Receive()
}

// Drain returns up to limit queued updates (all when limit <= 0) without
// blocking.
func (s *Subscription) Drain(limit int) []Update {
	return s.buf.DrainTo(limit)
}

// Pending returns the number of queued updates.
func (s *Subscription) Pending() int {
	return s.buf.Len()
}

// Close unregisters the subscription and wakes a blocked Receive.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.router.unsubscribe(s)
		s.buf.Close()
	})
}
