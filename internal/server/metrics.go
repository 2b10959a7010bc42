package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/observability"
)

// Metrics exports the observability hooks as Prometheus metrics. It owns
// its registry, so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	layouts       prometheus.Histogram
	layoutNodes   prometheus.Gauge
	mutations     *prometheus.CounterVec
	storageOps    *prometheus.CounterVec
	storageTime   *prometheus.HistogramVec
	httpInFlight  prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewMetrics creates the collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		layouts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Duration of full layout passes.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		layoutNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "People placed by the most recent layout pass.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Tree edits by operation and result code.",
		}, []string{"op", "code"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Storage calls by backend, operation and result code.",
		}, []string{"backend", "op", "code"}),
		storageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage call duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.layouts, m.layoutNodes, m.mutations,
		m.storageOps, m.storageTime,
		m.httpInFlight, m.httpRequests, m.httpDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Install registers m as the global layout, storage and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(m)
	observability.SetStorageHooks(m)
	observability.SetHTTPHooks(m)
}

// Registry returns the registry holding m's collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// resultCode labels an outcome: "ok" or the error code.
func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	return "error"
}

func (m *Metrics) OnLayoutComplete(_ context.Context, nodes, _ int, d time.Duration) {
	m.layouts.Observe(d.Seconds())
	m.layoutNodes.Set(float64(nodes))
}

func (m *Metrics) OnMutation(_ context.Context, op string, err error) {
	m.mutations.WithLabelValues(op, resultCode(err)).Inc()
}

func (m *Metrics) OnStorageOp(_ context.Context, backend, op string, d time.Duration, err error) {
	m.storageOps.WithLabelValues(backend, op, resultCode(err)).Inc()
	m.storageTime.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.httpInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpInFlight.Dec()
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.LayoutHooks  = (*Metrics)(nil)
	_ observability.StorageHooks = (*Metrics)(nil)
	_ observability.HTTPHooks    = (*Metrics)(nil)
)
