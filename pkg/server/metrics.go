package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// inlineSchema labels records generated from request bodies.
const inlineSchema = "_inline"

type metrics struct {
	registry         *prometheus.Registry
	recordsGenerated *prometheus.CounterVec
	generationErrors *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	activeStreams    prometheus.Gauge
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		registry: reg,
		recordsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schemagen_records_generated_total",
			Help: "Records generated, by schema name",
		}, []string{"schema"}),
		generationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schemagen_generation_errors_total",
			Help: "Failed generation requests, by reason",
		}, []string{"reason"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schemagen_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schemagen_active_streams",
			Help: "Open WebSocket streams",
		}),
	}
	reg.MustRegister(
		m.recordsGenerated,
		m.generationErrors,
		m.requestDuration,
		m.activeStreams,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
