package router

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/market-sync/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BufferSize != 16 {
		t.Errorf("BufferSize = %d, want 16", cfg.BufferSize)
	}
	if cfg.MaxBufferSize != 1024 {
		t.Errorf("MaxBufferSize = %d, want 1024", cfg.MaxBufferSize)
	}
}

func fixedClock(r *Router) time.Time {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }
	return at
}

func TestRouter_LatestTracksState(t *testing.T) {
	r := New(Config{}, nil)
	at := fixedClock(r)

	if got := r.Latest(); got.Version != 0 || got.OrderBook != nil || got.Trades != nil {
		t.Fatalf("initial state = %+v", got)
	}

	ob := &model.OrderBookSnapshot{MarketID: "m", YesBids: []model.PriceLevel{{Price: 55, TotalQuantity: 10}}}
	r.PublishOrderBook(ob)
	r.PublishTrades([]model.Trade{{TradeID: "t1"}})
	r.PublishError(errors.New("market api unreachable: refused"))

	st := r.Latest()
	if st.Version != 3 {
		t.Errorf("Version = %d, want 3", st.Version)
	}
	if st.OrderBook != ob {
		t.Error("OrderBook not the published pointer")
	}
	if len(st.Trades) != 1 || st.Trades[0].TradeID != "t1" {
		t.Errorf("Trades = %+v", st.Trades)
	}
	if st.Error != "market api unreachable: refused" {
		t.Errorf("Error = %q", st.Error)
	}
	if !st.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", st.UpdatedAt, at)
	}

	r.PublishError(nil)
	if st := r.Latest(); st.Error != "" || st.OrderBook != ob {
		t.Errorf("after clear: %+v", st)
	}
}

func TestRouter_FanOutInOrder(t *testing.T) {
	r := New(DefaultConfig(), nil)
	a := r.Subscribe()
	b := r.Subscribe()
	defer a.Close()
	defer b.Close()

	r.PublishOrderBook(&model.OrderBookSnapshot{MarketID: "m"})
	r.PublishTrades([]model.Trade{})
	r.PublishError(nil)

	want := []Kind{KindOrderBook, KindTrades, KindError}
	for _, sub := range []*Subscription{a, b} {
		if sub.Pending() != 3 {
			t.Fatalf("Pending() = %d, want 3", sub.Pending())
		}
		got := sub.Drain(0)
		if len(got) != len(want) {
			t.Fatalf("Drain(0) returned %d updates, want %d", len(got), len(want))
		}
		for i, kind := range want {
			u := got[i]
			if u.Kind != kind || u.Version != uint64(i+1) {
				t.Errorf("update %d = %s v%d, want %s v%d", i, u.Kind, u.Version, kind, i+1)
			}
		}
	}

	if st := r.Stats(); st.Published != 3 || st.Delivered != 6 || st.Pending != 0 || st.Subscribers != 2 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestRouter_LateSubscriberSeesOnlyNewUpdates(t *testing.T) {
	r := New(DefaultConfig(), nil)
	r.PublishTrades([]model.Trade{{TradeID: "old"}})

	sub := r.Subscribe()
	defer sub.Close()
	if sub.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sub.Pending())
	}

	r.PublishTrades([]model.Trade{{TradeID: "new"}})
	got := sub.Drain(1)
	if len(got) != 1 || got[0].Trades[0].TradeID != "new" {
		t.Errorf("Drain(1) = %+v", got)
	}
}

func TestRouter_SlowSubscriberDropsOldest(t *testing.T) {
	r := New(Config{BufferSize: 2, MaxBufferSize: 4}, nil)
	sub := r.Subscribe()

	for range 10 {
		r.PublishError(nil)
	}

	if got := sub.Pending(); got != 4 {
		t.Errorf("Pending() = %d, want 4", got)
	}
	if got := r.Stats().Pending; got != 4 {
		t.Errorf("Stats().Pending = %d, want 4", got)
	}
	u, _ := sub.Receive()
	if u.Version != 7 {
		t.Errorf("oldest kept version = %d, want 7", u.Version)
	}
	if got := r.Stats().Dropped; got != 6 {
		t.Errorf("Dropped = %d, want 6", got)
	}

	sub.Close()
	if st := r.Stats(); st.Dropped != 6 || st.Subscribers != 0 {
		t.Errorf("Stats after close = %+v", st)
	}
}

func TestSubscription_CloseUnblocksReceive(t *testing.T) {
	r := New(DefaultConfig(), nil)
	sub := r.Subscribe()

	done := make(chan bool, 1)
	go func() {
		_, ok := sub.Receive()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	sub.Close()
	sub.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Receive returned true after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Receive")
	}

	r.PublishError(nil)
	if r.Stats().Delivered != 0 {
		t.Error("update delivered to closed subscription")
	}
}

func TestRouter_Close(t *testing.T) {
	r := New(DefaultConfig(), nil)
	sub := r.Subscribe()
	r.Close()

	if _, ok := sub.Receive(); ok {
		t.Error("Receive returned true after router Close")
	}
	r.PublishOrderBook(&model.OrderBookSnapshot{})
	if r.Stats().Published != 0 {
		t.Error("publication accepted after Close")
	}

	late := r.Subscribe()
	if _, ok := late.Receive(); ok {
		t.Error("subscription after Close is open")
	}
	late.Close()
}

func TestRouter_ConcurrentPublishSubscribe(t *testing.T) {
	r := New(Config{BufferSize: 4, MaxBufferSize: 4096}, nil)

	const publishers, perPublisher = 4, 100
	sub := r.Subscribe()
	defer sub.Close()

	var wg sync.WaitGroup
	for range publishers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perPublisher {
				r.PublishTrades(nil)
			}
		}()
	}
	wg.Wait()

	var last uint64
	for _, u := range sub.Drain(0) {
		if u.Version <= last {
			t.Fatalf("version %d after %d", u.Version, last)
		}
		last = u.Version
	}
	if last != publishers*perPublisher {
		t.Errorf("last version = %d, want %d", last, publishers*perPublisher)
	}
}
