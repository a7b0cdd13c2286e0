package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	jobsTotal       *prometheus.CounterVec

	provisioned   *prometheus.CounterVec
	compensations *prometheus.CounterVec
	deleteRefused *prometheus.CounterVec
	violations    prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_jobs_total",
		Help: "Jumlah eksekusi job berdasarkan task dan status.",
	}, []string{"task", "status"})
	provisioned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_coa_subaccounts_provisioned_total",
		Help: "Sub-accounts provisioned for linked entities.",
	}, []string{"kind"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_coa_compensations_total",
		Help: "Compensating sub-account deletions after failed entity writes.",
	}, []string{"kind", "outcome"})
	refused := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_coa_delete_refused_total",
		Help: "Account deletions refused by integrity or ownership rules.",
	}, []string{"reason"})
	violations := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "odyssey_coa_integrity_violations",
		Help: "Violations found by the most recent integrity check.",
	})
	registry.MustRegister(requests, duration, jobs, provisioned, compensations, refused, violations)
	// Inisialisasi seri agar terlihat di /metrics sebelum job pertama berjalan.
	jobs.WithLabelValues("coa:integrity", "ok").Add(0)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		jobsTotal:       jobs,
		provisioned:     provisioned,
		compensations:   compensations,
		deleteRefused:   refused,
		violations:      violations,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Provisioned counts a sub-account created for a linked entity.
func (m *Metrics) Provisioned(kind string) {
	if m == nil {
		return
	}
	m.provisioned.WithLabelValues(kind).Inc()
}

// Compensation counts a compensating delete and its outcome.
func (m *Metrics) Compensation(kind, outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(kind, outcome).Inc()
}

// DeleteRefused counts an account deletion rejected for reason.
func (m *Metrics) DeleteRefused(reason string) {
	if m == nil {
		return
	}
	m.deleteRefused.WithLabelValues(reason).Inc()
}

// JobCompleted mencatat hasil eksekusi job.
func (m *Metrics) JobCompleted(task, status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(task, status).Inc()
}

// IntegrityViolations records the size of the latest integrity report.
func (m *Metrics) IntegrityViolations(n int) {
	if m == nil {
		return
	}
	m.violations.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
