package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records reconciliation, refresh and push channel activity.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	reconciles      *prometheus.CounterVec
	persistFailures prometheus.Counter
	refreshDuration prometheus.Histogram
	refreshFailures prometheus.Counter
	pushEvents      *prometheus.CounterVec
	pushReconnects  prometheus.Counter
	pushSubscribers prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart operations by kind and outcome.",
	}, []string{"op", "outcome"})
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_reconciles_total",
		Help: "Reconciliation passes by trigger and outcome.",
	}, []string{"source", "outcome"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart snapshots that could not be written to the durable store.",
	})
	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_refresh_duration_seconds",
		Help:    "Duration of catalog pulls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_refresh_failures_total",
		Help: "Catalog pulls that failed and were skipped.",
	})
	pushEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_events_total",
		Help: "Catalog events received on the push channel.",
	}, []string{"kind"})
	pushReconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_reconnects_total",
		Help: "Push channel reconnect attempts.",
	})
	pushSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "push_subscribers",
		Help: "Currently registered push channel subscribers.",
	})
	reg.MustRegister(mutations, reconciles, persistFailures, refreshDuration, refreshFailures, pushEvents, pushReconnects, pushSubscribers)
	return &CartMetrics{
		mutations:       mutations,
		reconciles:      reconciles,
		persistFailures: persistFailures,
		refreshDuration: refreshDuration,
		refreshFailures: refreshFailures,
		pushEvents:      pushEvents,
		pushReconnects:  pushReconnects,
		pushSubscribers: pushSubscribers,
	}
}

// IncMutation counts a cart operation with its outcome.
func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncReconcile counts a reconciliation pass by trigger.
func (c *CartMetrics) IncReconcile(source, outcome string) {
	if c == nil || c.reconciles == nil {
		return
	}
	c.reconciles.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}

// ObserveRefresh records the duration of a catalog pull.
func (c *CartMetrics) ObserveRefresh(duration time.Duration) {
	if c == nil || c.refreshDuration == nil {
		return
	}
	c.refreshDuration.Observe(duration.Seconds())
}

func (c *CartMetrics) IncRefreshFailure() {
	if c == nil || c.refreshFailures == nil {
		return
	}
	c.refreshFailures.Inc()
}

func (c *CartMetrics) IncPushEvent(kind string) {
	if c == nil || c.pushEvents == nil {
		return
	}
	c.pushEvents.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (c *CartMetrics) IncPushReconnect() {
	if c == nil || c.pushReconnects == nil {
		return
	}
	c.pushReconnects.Inc()
}

func (c *CartMetrics) SetPushSubscribers(n int) {
	if c == nil || c.pushSubscribers == nil {
		return
	}
	c.pushSubscribers.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
