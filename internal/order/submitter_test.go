package order

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
)

type fakePlacer struct {
	calls  atomic.Int32
	result *model.OrderResult
	err    error
	last   model.OrderRequest
}

func (f *fakePlacer) SubmitOrder(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	f.calls.Add(1)
	f.last = req
	return f.result, f.err
}

type countingRefresher struct {
	n atomic.Int32
}

func (c *countingRefresher) Refresh() { c.n.Add(1) }

func accepted(id string, trades int) *model.OrderResult {
	r := &model.OrderResult{Order: model.Order{OrderID: id, Status: model.StatusOpen}}
	for range trades {
		r.Trades = append(r.Trades, model.Trade{TradeID: "t"})
	}
	return r
}

func TestSubmit_MarketBuyRejectedLocally(t *testing.T) {
	placer := &fakePlacer{}
	refresher := &countingRefresher{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := NewSubmitter(placer, refresher, nil, WithMetrics(m))

	req := model.OrderRequest{
		AccountID: "u1",
		MarketID:  "m",
		Side:      model.SideYes,
		OrderType: model.OrderTypeBuy,
		Price:     0,
		Quantity:  5,
	}
	_, err := s.Submit(context.Background(), req)

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != CodeMarketOrderBuyNotAllowed {
		t.Fatalf("err = %v, want MARKET_ORDER_BUY_NOT_ALLOWED", err)
	}
	if placer.calls.Load() != 0 {
		t.Error("request sent despite validation failure")
	}
	if refresher.n.Load() != 0 {
		t.Error("refresh triggered on rejection")
	}
	if got := testutil.ToFloat64(m.Orders.WithLabelValues(ResultRejected)); got != 1 {
		t.Errorf("orders{rejected} = %v, want 1", got)
	}
}

func TestSubmit_SuccessRefreshesOnce(t *testing.T) {
	placer := &fakePlacer{result: accepted("abcdef123456", 2)}
	refresher := &countingRefresher{}
	s := NewSubmitter(placer, refresher, nil)

	req := model.OrderRequest{AccountID: "u1", MarketID: "m", Side: model.SideNo, OrderType: model.OrderTypeSell, Price: 0, Quantity: 3}
	result, err := s.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Order.OrderID != "abcdef123456" {
		t.Errorf("OrderID = %q", result.Order.OrderID)
	}
	if placer.calls.Load() != 1 {
		t.Errorf("placer calls = %d, want 1", placer.calls.Load())
	}
	if placer.last != req {
		t.Errorf("sent %+v, want %+v", placer.last, req)
	}
	if refresher.n.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", refresher.n.Load())
	}
}

func TestSubmit_FailureNotRetried(t *testing.T) {
	placer := &fakePlacer{err: &api.TransportError{StatusCode: 503, Message: "Service Unavailable"}}
	refresher := &countingRefresher{}
	s := NewSubmitter(placer, refresher, nil)

	_, err := s.Submit(context.Background(), model.OrderRequest{OrderType: model.OrderTypeBuy, Price: 40, Quantity: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if placer.calls.Load() != 1 {
		t.Errorf("placer calls = %d, want 1", placer.calls.Load())
	}
	if refresher.n.Load() != 0 {
		t.Errorf("refreshes = %d, want 0", refresher.n.Load())
	}
}

func TestSubmit_NilRefresher(t *testing.T) {
	s := NewSubmitter(&fakePlacer{result: accepted("x", 0)}, nil, nil)
	if _, err := s.Submit(context.Background(), model.OrderRequest{OrderType: model.OrderTypeSell, Price: 10, Quantity: 1}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func TestSubmit_DetailSurfacedVerbatim(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Price must be between 0 and 100"}`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, api.WithRetries(3, time.Millisecond))
	s := NewSubmitter(client, nil, nil)

	_, err := s.Submit(context.Background(), model.OrderRequest{
		AccountID: "u1", MarketID: "m", Side: model.SideYes, OrderType: model.OrderTypeBuy, Price: 140, Quantity: 1,
	})

	var te *api.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *api.TransportError", err)
	}
	if te.Detail != "Price must be between 0 and 100" {
		t.Errorf("Detail = %q", te.Detail)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1 (no retry)", hits.Load())
	}
	if got := ErrorMessage(err); got != "Error: Price must be between 0 and 100" {
		t.Errorf("ErrorMessage = %q", got)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		result *model.OrderResult
		want   string
	}{
		{accepted("0123456789abcdef", 0), "Order submitted! ID: 01234567..."},
		{accepted("0123456789abcdef", 1), "Order submitted! ID: 01234567... 1 trade executed."},
		{accepted("0123456789abcdef", 3), "Order submitted! ID: 01234567... 3 trades executed."},
		{accepted("short", 0), "Order submitted! ID: short..."},
	}
	for _, tt := range tests {
		if got := Summary(tt.result); got != tt.want {
			t.Errorf("Summary() = %q, want %q", got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", Validate(model.OrderRequest{OrderType: model.OrderTypeBuy}), "Error: Market orders (price=0) are only allowed for SELL orders"},
		{"unreachable", &api.TransportError{Message: "dial tcp: refused"}, "Error: Failed to submit order (backend unreachable)"},
		{"status without detail", &api.TransportError{StatusCode: 502, Message: "Bad Gateway"}, "Error: Failed to submit order (Bad Gateway)"},
		{"other", errors.New("boom"), "Error: Failed to submit order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorMessage(tt.err)
			if got != tt.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.want)
			}
			if tt.err != nil && !strings.HasPrefix(got, "Error: ") {
				t.Errorf("missing prefix: %q", got)
			}
		})
	}
}
