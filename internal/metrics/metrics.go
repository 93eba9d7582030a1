package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketsync"

// Dimension labels.
const (
	DimensionOrderBook = "orderbook"
	DimensionTrades    = "trades"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Ticks         *prometheus.CounterVec
	TickDuration  prometheus.Histogram
	TicksSkipped  prometheus.Counter
	Publications  *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Orders        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Completed poll ticks by reason.",
		}, []string{"reason"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of a poll tick, bounded by the slower fetch.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Timer firings dropped because a tick was still in flight.",
		}),
		Publications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_total",
			Help:      "Snapshots republished after a detected change.",
		}, []string{"dimension"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed fetches by dimension and kind (transport, malformed).",
		}, []string{"dimension", "kind"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Order submissions by result (accepted, rejected, failed).",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.Ticks,
		m.TickDuration,
		m.TicksSkipped,
		m.Publications,
		m.FetchFailures,
		m.Orders,
	)
	return m
}

// NewRegistry returns a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ObserveTick records a completed tick.
func (m *Metrics) ObserveTick(reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.WithLabelValues(reason).Inc()
	m.TickDuration.Observe(d.Seconds())
}

// TickSkipped records a dropped timer firing.
func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.TicksSkipped.Inc()
}

// Published records a republished dimension.
func (m *Metrics) Published(dimension string) {
	if m == nil {
		return
	}
	m.Publications.WithLabelValues(dimension).Inc()
}

// FetchFailed records a failed fetch.
func (m *Metrics) FetchFailed(dimension, kind string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(dimension, kind).Inc()
}

// OrderSubmitted records a submission result.
func (m *Metrics) OrderSubmitted(result string) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(result).Inc()
}
