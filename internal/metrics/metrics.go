package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the HTTP surface and the risk engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Request counts by route template, method and status
	Requests *prometheus.CounterVec

	// Request latency by route template
	RequestLatency *prometheus.HistogramVec

	// Rows skipped as unscorable by batch operation
	SkippedRows *prometheus.CounterVec

	// Dataset reload attempts by outcome
	Reloads *prometheus.CounterVec

	// Rows in the active dataset index
	DatasetRows prometheus.Gauge

	// Unix time of the last successful load
	DatasetLoadedAt prometheus.Gauge
}

// New creates a Metrics instance registered on its own registry, along with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "districtrisk_http_requests_total",
			Help: "Total HTTP requests by route, method and status code",
		}, []string{"route", "method", "status"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "districtrisk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),

		SkippedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "districtrisk_engine_skipped_rows_total",
			Help: "Rows skipped as unscorable by batch operation",
		}, []string{"operation"}),

		Reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "districtrisk_dataset_reloads_total",
			Help: "Dataset reload attempts by outcome",
		}, []string{"outcome"}), // outcome: "success", "failure"

		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "districtrisk_dataset_rows",
			Help: "Number of observations in the active dataset index",
		}),

		DatasetLoadedAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "districtrisk_dataset_loaded_timestamp_seconds",
			Help: "Unix time of the last successful dataset load",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// AddSkipped records rows a batch operation skipped.
func (m *Metrics) AddSkipped(operation string, n int) {
	if m != nil && n > 0 {
		m.SkippedRows.WithLabelValues(operation).Add(float64(n))
	}
}

// ObserveLoad records a successful load or reload of n rows.
func (m *Metrics) ObserveLoad(rows int, at time.Time) {
	if m == nil {
		return
	}
	m.DatasetRows.Set(float64(rows))
	m.DatasetLoadedAt.Set(float64(at.Unix()))
}

// IncrementReload records a reload attempt.
func (m *Metrics) IncrementReload(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Reloads.WithLabelValues(outcome).Inc()
}
