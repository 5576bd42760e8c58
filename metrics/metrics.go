// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for settlement and aggregation. The zero
// value is usable and records nothing until Register is called.
type Metrics struct {
	registry prometheus.Gatherer

	settlements *prometheus.CounterVec
	aggregation prometheus.Histogram

	registerOnce sync.Once
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{}
	m.Register(reg)
	m.registry = reg
	return m
}

// Register registers the collectors with registry. Calling it more than
// once is a no-op; a nil registry is ignored.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if registry == nil {
		return
	}

	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.settlements = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qv_settlements_total",
			Help: "Ballot submissions by outcome (created, amended, or rejection reason)",
		}, []string{"outcome"})

		m.aggregation = factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qv_aggregation_duration_seconds",
			Help:    "Time spent aggregating event results",
			Buckets: prometheus.DefBuckets,
		})
	})
}

// ObserveSettlement implements voting.Recorder.
func (m *Metrics) ObserveSettlement(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

// ObserveAggregation records how long one results aggregation took.
func (m *Metrics) ObserveAggregation(d time.Duration) {
	if m == nil || m.aggregation == nil {
		return
	}
	m.aggregation.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
