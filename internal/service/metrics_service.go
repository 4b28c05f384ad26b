package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the console's Prometheus registry and a few counters
// mirrored for the stats endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sessionLatency  prometheus.Observer
	sessionWrite    prometheus.Observer
	sessionHits     prometheus.Counter
	sessionMisses   prometheus.Counter
	backendDuration *prometheus.HistogramVec
	backendTotal    *prometheus.CounterVec
	auditTotal      *prometheus.CounterVec
	refreshTotal    prometheus.Counter
	exportTotal     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	sessionHitCount      uint64
	sessionMissCount     uint64
	backendCallCount     uint64
	backendFailureCount  uint64
	refreshCount         uint64
}

// Stats is a point-in-time summary of the console's activity.
type Stats struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SessionHits              uint64    `json:"session_hits"`
	SessionMisses            uint64    `json:"session_misses"`
	BackendCalls             uint64    `json:"backend_calls"`
	BackendFailures          uint64    `json:"backend_failures"`
	Refreshes                uint64    `json:"refreshes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers the console collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sessionLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_session_load_seconds",
		Help:    "Latency for session state loads",
		Buckets: prometheus.DefBuckets,
	})

	sessionWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_session_save_seconds",
		Help:    "Latency for session state saves",
		Buckets: prometheus.DefBuckets,
	})

	sessionHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_session_hits_total",
		Help: "Session loads that found stored state",
	})

	sessionMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_session_misses_total",
		Help: "Session loads that started from fresh state",
	})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_backend_request_duration_seconds",
		Help:    "Duration of calls to the student backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})

	backendTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_backend_requests_total",
		Help: "Calls to the student backend",
	}, []string{"op", "status"})

	auditTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_audit_entries_total",
		Help: "Audit entries by outcome",
	}, []string{"outcome"})

	refreshTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "console_refresh_signals_total",
		Help: "Refresh signals published after successful saves",
	})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_exports_total",
		Help: "Exports rendered by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sessionLatency, sessionWrite, sessionHits, sessionMisses,
		backendDuration, backendTotal, auditTotal, refreshTotal, exportTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sessionLatency:  sessionLatency,
		sessionWrite:    sessionWrite,
		sessionHits:     sessionHits,
		sessionMisses:   sessionMisses,
		backendDuration: backendDuration,
		backendTotal:    backendTotal,
		auditTotal:      auditTotal,
		refreshTotal:    refreshTotal,
		exportTotal:     exportTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordSessionLookup records a session load and whether state was found.
func (m *MetricsService) RecordSessionLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionLatency.Observe(duration.Seconds())
	if hit {
		m.sessionHits.Inc()
		atomic.AddUint64(&m.sessionHitCount, 1)
		return
	}
	m.sessionMisses.Inc()
	atomic.AddUint64(&m.sessionMissCount, 1)
}

// ObserveSessionWrite tracks the duration of session saves.
func (m *MetricsService) ObserveSessionWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionWrite.Observe(duration.Seconds())
}

// ObserveBackendCall records one call to the student backend. A zero status
// means the request never got a response.
func (m *MetricsService) ObserveBackendCall(op string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.backendDuration.WithLabelValues(op, label).Observe(duration.Seconds())
	m.backendTotal.WithLabelValues(op, label).Inc()
	atomic.AddUint64(&m.backendCallCount, 1)
	if status == 0 || status >= http.StatusBadRequest {
		atomic.AddUint64(&m.backendFailureCount, 1)
	}
}

// RecordAudit counts an audit entry outcome.
func (m *MetricsService) RecordAudit(outcome string) {
	if m == nil {
		return
	}
	m.auditTotal.WithLabelValues(outcome).Inc()
}

// RecordRefresh counts a published refresh signal.
func (m *MetricsService) RecordRefresh() {
	if m == nil {
		return
	}
	m.refreshTotal.Inc()
	atomic.AddUint64(&m.refreshCount, 1)
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exportTotal.WithLabelValues(format).Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() Stats {
	if m == nil {
		return Stats{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return Stats{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SessionHits:              atomic.LoadUint64(&m.sessionHitCount),
		SessionMisses:            atomic.LoadUint64(&m.sessionMissCount),
		BackendCalls:             atomic.LoadUint64(&m.backendCallCount),
		BackendFailures:          atomic.LoadUint64(&m.backendFailureCount),
		Refreshes:                atomic.LoadUint64(&m.refreshCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
