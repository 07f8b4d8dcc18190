package telemetry

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the API client.
type Metrics struct {
	config MetricsConfig

	// Request metrics
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Transport metrics
	connectionFailures *prometheus.CounterVec

	// Job metrics
	jobsSubmitted prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   buckets,
			},
			[]string{"method", "path"},
		),
		connectionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_connection_failures_total",
				Help:      "Total number of requests that never produced a response",
			},
			[]string{"host"},
		),
		jobsSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_submitted_total",
				Help:      "Total number of jobs successfully submitted",
			},
		),
		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of classified client errors",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.connectionFailures,
		m.jobsSubmitted,
		m.errorsByClass,
	)

	return m, nil
}

// RecordRequest records one completed API request. The path is reduced to its
// template form before use as a label, so identifiers do not explode the
// label cardinality.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil || m.requestsTotal == nil {
		return
	}
	label := pathLabel(path)
	m.requestsTotal.WithLabelValues(method, label, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, label).Observe(duration.Seconds())
}

// RecordConnectionFailure records a request that never reached the server.
func (m *Metrics) RecordConnectionFailure(host string) {
	if m == nil || m.connectionFailures == nil {
		return
	}
	m.connectionFailures.WithLabelValues(host).Inc()
}

// RecordJobSubmitted records a successful job submission.
func (m *Metrics) RecordJobSubmitted() {
	if m == nil || m.jobsSubmitted == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

// RecordError records a classified client error.
func (m *Metrics) RecordError(class string) {
	if m == nil || m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(class).Inc()
}

// pathLabel collapses identifier segments so "/jobs/1234/result" and
// "/jobs/17/result" share the label "jobs/:id/result".
func pathLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// Timer measures a duration for histogram observation.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns the HTTP handler serving the metrics endpoint. When metrics
// are disabled it serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves the metrics endpoint on the configured address.
// The server runs in a background goroutine; this returns immediately.
func (m *Metrics) StartMetricsServer() error {
	if m == nil || !m.config.Enabled {
		return nil
	}

	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
		}
	}()

	return nil
}
