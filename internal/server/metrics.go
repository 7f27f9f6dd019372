package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each Metrics owns its
// registry so several servers can live in one process.
type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	uploadsTotal      *prometheus.CounterVec
	linesParsed       prometheus.Counter
	daysParsed        prometheus.Counter
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthdash_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthdash_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthdash_uploads_total",
			Help: "Uploaded files by detected kind and outcome.",
		}, []string{"kind", "outcome"}),
		linesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthdash_export_lines_total",
			Help: "Lines read from uploaded Apple Health exports.",
		}),
		daysParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthdash_export_days_total",
			Help: "Days summarized from uploaded Apple Health exports.",
		}),
	}
	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.uploadsTotal,
		m.linesParsed,
		m.daysParsed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Upload counts one processed upload.
func (m *Metrics) Upload(kind, outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(kind, outcome).Inc()
}

// Export adds the counters of one parsed export.
func (m *Metrics) Export(lines, days int) {
	if m == nil {
		return
	}
	m.linesParsed.Add(float64(lines))
	m.daysParsed.Add(float64(days))
}
