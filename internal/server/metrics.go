package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/drilldown/pkg/observability"
)

// Metrics exports the observability hooks as Prometheus metrics. It
// implements observability.EditorHooks, StoreHooks and HTTPHooks.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	navigations  *prometheus.CounterVec
	transfers    *prometheus.CounterVec
	exportBytes  prometheus.Histogram
	storeOps     *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// NewMetrics creates the collectors in a private registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_mutations_total",
			Help:      "Graph mutations by operation and outcome",
		}, []string{"op", "applied"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigation stack changes by operation",
		}, []string{"op"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transfers_total",
			Help:      "Imports and exports by format and outcome",
		}, []string{"direction", "format", "status"}),
		exportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_size_bytes",
			Help:      "Size of exported documents",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Storage operations by backend, operation and outcome",
		}, []string{"backend", "op", "status"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Storage operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.mutations, m.navigations, m.transfers, m.exportBytes,
		m.storeOps, m.storeLatency,
	)
	return m
}

// Install makes m the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetEditorHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OnMutation(op string, applied bool) {
	m.mutations.WithLabelValues(op, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) OnNavigate(op string, _ int) {
	m.navigations.WithLabelValues(op).Inc()
}

func (m *Metrics) OnImport(format string, err error) {
	m.transfers.WithLabelValues("import", format, outcome(err)).Inc()
}

func (m *Metrics) OnExport(format string, size int) {
	m.transfers.WithLabelValues("export", format, "ok").Inc()
	m.exportBytes.Observe(float64(size))
}

func (m *Metrics) OnStoreOp(_ context.Context, backend, op string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(backend, op, outcome(err)).Inc()
	m.storeLatency.WithLabelValues(backend, op).Observe(d.Seconds())
}

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.EditorHooks = (*Metrics)(nil)
	_ observability.StoreHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
