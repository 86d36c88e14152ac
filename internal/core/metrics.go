// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry        *prometheus.Registry
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	EventsTotal     *prometheus.CounterVec
	Invalidations   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_events_total",
			Help: "Engagement events recorded, by type",
		}, []string{"type"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_page_invalidations_total",
			Help: "Page invalidation runs, by target kind and outcome",
		}, []string{"kind", "outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.RequestTotal,
		m.EventsTotal,
		m.Invalidations,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
