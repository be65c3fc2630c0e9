// Package metrics owns the Prometheus collectors. A nil *Metrics is valid
// and records nothing, which is how the service runs with metrics disabled.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a private registry plus the collectors the service updates.
type Metrics struct {
	reg *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	commits           *prometheus.CounterVec
	materializations  *prometheus.CounterVec
	occurrencesListed prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		commits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lesson_commits_total",
				Help: "Lesson commit attempts by action and result",
			},
			[]string{"action", "result"},
		),
		materializations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_materializations_total",
				Help: "Materialize calls by outcome",
			},
			[]string{"outcome"},
		),
		occurrencesListed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "occurrences_listed_total",
				Help: "Occurrences returned by listing calls",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware times every request and labels it with the chi route pattern,
// so /events/{id} is one series rather than one per id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// TrackCommit counts one commit call. result is ok, already_committed or error.
func (m *Metrics) TrackCommit(action, result string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(action, result).Inc()
}

// TrackMaterialize counts one materialize call.
func (m *Metrics) TrackMaterialize(created bool) {
	if m == nil {
		return
	}
	outcome := "existing"
	if created {
		outcome = "created"
	}
	m.materializations.WithLabelValues(outcome).Inc()
}

// TrackOccurrences adds n listed occurrences.
func (m *Metrics) TrackOccurrences(n int) {
	if m == nil {
		return
	}
	m.occurrencesListed.Add(float64(n))
}
