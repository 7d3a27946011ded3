// Package metrics holds the Prometheus collectors for ingestion and HTTP
// traffic. Each Metrics value owns its registry, so tests and multiple
// servers in one process do not collide.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors exported on /metrics.
type Metrics struct {
	reg *prometheus.Registry

	rows          *prometheus.CounterVec   // taxi_ingest_rows_total
	batches       prometheus.Counter       // taxi_ingest_batches_total
	batchDuration prometheus.Histogram     // taxi_ingest_batch_commit_seconds
	loads         *prometheus.CounterVec   // taxi_ingest_loads_total
	loadDuration  prometheus.Histogram     // taxi_ingest_load_duration_seconds
	httpRequests  *prometheus.CounterVec   // taxi_http_requests_total
	httpDuration  *prometheus.HistogramVec // taxi_http_request_duration_seconds
}

// New builds and registers every collector, including the Go runtime and
// process collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxi_ingest_rows_total",
				Help: "CSV rows seen by the cleaner, partitioned by outcome and exclusion reason.",
			},
			[]string{"outcome", "reason"},
		),
		batches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "taxi_ingest_batches_total",
				Help: "Trip batches committed to the store.",
			},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taxi_ingest_batch_commit_seconds",
				Help:    "Latency of one batch upsert transaction.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
			},
		),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxi_ingest_loads_total",
				Help: "Load runs, partitioned by final status.",
			},
			[]string{"status"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taxi_ingest_load_duration_seconds",
				Help:    "Wall time of complete load runs.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 14),
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxi_http_requests_total",
				Help: "HTTP requests, partitioned by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxi_http_request_duration_seconds",
				Help:    "HTTP request latency, partitioned by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	toRegister := []prometheus.Collector{
		m.rows, m.batches, m.batchDuration, m.loads, m.loadDuration,
		m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}

	return m, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveRow counts one cleaned row; an empty reason means it was kept.
func (m *Metrics) ObserveRow(reason string) {
	if reason == "" {
		m.rows.WithLabelValues("kept", "").Inc()
		return
	}
	m.rows.WithLabelValues("excluded", reason).Inc()
}

// ObserveBatch records one committed batch.
func (m *Metrics) ObserveBatch(d time.Duration) {
	m.batches.Inc()
	m.batchDuration.Observe(d.Seconds())
}

// ObserveLoad records a finished load run.
func (m *Metrics) ObserveLoad(status string, d time.Duration) {
	m.loads.WithLabelValues(status).Inc()
	m.loadDuration.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
