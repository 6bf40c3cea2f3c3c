package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Parse job metrics
	linesProcessedTotal prometheus.Counter
	recordsTotal        *prometheus.CounterVec
	jobDuration         prometheus.Histogram
	activeJobs          prometheus.Gauge

	// Pool metrics
	poolHitRatio prometheus.Gauge
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muninn_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "muninn_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		linesProcessedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "muninn_lines_processed_total",
				Help: "Total number of raw log lines read by parse jobs",
			},
		),

		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muninn_records_total",
				Help: "Total number of parsed records by severity",
			},
			[]string{"level"},
		),

		jobDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "muninn_job_duration_seconds",
				Help:    "Parse job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		activeJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "muninn_active_jobs",
				Help: "Number of parse jobs currently running",
			},
		),

		poolHitRatio: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "muninn_pool_hit_ratio",
				Help: "Fraction of record requests served from the pool",
			},
		),
	}
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordParsed records one emitted record by severity
func (m *Metrics) RecordParsed(level string) {
	m.recordsTotal.WithLabelValues(level).Inc()
}

// JobStarted marks a parse job as running
func (m *Metrics) JobStarted() {
	m.activeJobs.Inc()
}

// JobFinished records the end of a parse job
func (m *Metrics) JobFinished(duration time.Duration, lines int64) {
	m.activeJobs.Dec()
	m.jobDuration.Observe(duration.Seconds())
	m.linesProcessedTotal.Add(float64(lines))
}

// SetPoolHitRatio publishes the current pool hit ratio
func (m *Metrics) SetPoolHitRatio(ratio float64) {
	m.poolHitRatio.Set(ratio)
}

// InstrumentHandler instruments an HTTP handler with request metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
