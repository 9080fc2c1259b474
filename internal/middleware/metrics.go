package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP surface plus a gauge
// for the number of live change-stream subscribers.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
	streamClients   prometheus.GaugeFunc
}

// NewMetrics creates a Metrics collector on a private registry.
// subscriberCount is polled at scrape time (the realtime hub's
// SubscriberCount method fits the signature).
func NewMetrics(subscriberCount func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dailylog_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dailylog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		streamClients: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "dailylog_stream_subscribers",
			Help: "Currently connected change-stream subscribers.",
		}, func() float64 { return float64(subscriberCount()) }),
	}

	m.registry.MustRegister(m.requests, m.requestDuration, m.streamClients)

	return m
}

// Middleware records a counter and latency observation per request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.requests.WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
			m.requestDuration.Observe(time.Since(start).Seconds())
		})
	}
}

// Handler returns the /metrics scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
