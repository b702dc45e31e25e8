// Package metrics bundles the Prometheus collectors for the offer pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal              prometheus.Counter
	TickDuration            prometheus.Histogram
	OffersFetchedTotal      prometheus.Counter
	NewOffersTotal          prometheus.Counter
	NotificationsSentTotal  prometheus.Counter
	NotificationErrorsTotal prometheus.Counter
	SourceErrorsTotal       *prometheus.CounterVec
}

// New constructs and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatbot_ticks_total",
		Help: "Total pipeline ticks executed.",
	})
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flatbot_tick_duration_seconds",
		Help:    "Duration of one aggregate-dedup-filter-notify tick.",
		Buckets: prometheus.DefBuckets,
	})
	fetched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatbot_offers_fetched_total",
		Help: "Total offers returned by all sources, before dedup.",
	})
	newOffers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatbot_new_offers_total",
		Help: "Total offers recorded as previously unseen.",
	})
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatbot_notifications_sent_total",
		Help: "Total offer notifications delivered.",
	})
	notifyErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatbot_notification_errors_total",
		Help: "Total offer notifications that failed to send.",
	})
	sourceErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flatbot_source_errors_total",
		Help: "Total failed source fetches by source.",
	}, []string{"source"})

	registry.MustRegister(ticks, tickDuration, fetched, newOffers, sent, notifyErrors, sourceErrors)

	return &Metrics{
		Registry:                registry,
		TicksTotal:              ticks,
		TickDuration:            tickDuration,
		OffersFetchedTotal:      fetched,
		NewOffersTotal:          newOffers,
		NotificationsSentTotal:  sent,
		NotificationErrorsTotal: notifyErrors,
		SourceErrorsTotal:       sourceErrors,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveTick records one completed tick and its duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.TickDuration.Observe(d.Seconds())
}

// AddFetched records offers returned by the aggregator.
func (m *Metrics) AddFetched(n int) {
	if m == nil {
		return
	}
	m.OffersFetchedTotal.Add(float64(n))
}

// AddNew records offers that passed the dedup check.
func (m *Metrics) AddNew(n int) {
	if m == nil {
		return
	}
	m.NewOffersTotal.Add(float64(n))
}

// IncSent records one delivered notification.
func (m *Metrics) IncSent() {
	if m == nil {
		return
	}
	m.NotificationsSentTotal.Inc()
}

// IncNotifyError records one failed notification.
func (m *Metrics) IncNotifyError() {
	if m == nil {
		return
	}
	m.NotificationErrorsTotal.Inc()
}

// IncSourceError records one failed fetch for a source.
func (m *Metrics) IncSourceError(source string) {
	if m == nil {
		return
	}
	m.SourceErrorsTotal.WithLabelValues(source).Inc()
}
