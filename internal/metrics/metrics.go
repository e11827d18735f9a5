// Package metrics exposes Prometheus instruments for quizzes, sync and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studyplan"

// Metrics owns a private registry so tests and embedded servers never clash
// with the global one.
type Metrics struct {
	Registry *prometheus.Registry

	QuizzesTotal      *prometheus.CounterVec
	ProgressChanges   *prometheus.CounterVec
	SyncTotal         *prometheus.CounterVec
	SyncDuration      *prometheus.HistogramVec
	CompletionPercent *prometheus.GaugeVec
	RequestCounter    *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		QuizzesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quizzes_total",
				Help:      "Finished quizzes by outcome.",
			},
			[]string{"result"},
		),
		ProgressChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "progress_changes_total",
				Help:      "Progress mutations by source.",
			},
			[]string{"source"},
		),
		SyncTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_operations_total",
				Help:      "Remote sync calls by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of remote sync calls.",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 15},
			},
			[]string{"op"},
		),
		CompletionPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "completion_percent",
				Help:      "Overall curriculum completion per user.",
			},
			[]string{"user"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2},
			},
			[]string{"method", "endpoint"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.QuizzesTotal,
		m.ProgressChanges,
		m.SyncTotal,
		m.SyncDuration,
		m.CompletionPercent,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// QuizFinished counts a finished quiz.
func (m *Metrics) QuizFinished(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	m.QuizzesTotal.WithLabelValues(result).Inc()
}

// ProgressChanged counts a progress mutation from source.
func (m *Metrics) ProgressChanged(source string) {
	m.ProgressChanges.WithLabelValues(source).Inc()
}

// SetCompletion records a user's overall completion percentage.
func (m *Metrics) SetCompletion(user string, pct int) {
	m.CompletionPercent.WithLabelValues(user).Set(float64(pct))
}

// SyncFinished records one remote call.
func (m *Metrics) SyncFinished(op string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SyncTotal.WithLabelValues(op, status).Inc()
	m.SyncDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request counts and latencies labelled by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
