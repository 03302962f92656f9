// Package metrics holds the Prometheus collectors of the engine and the
// HTTP layer. They register on the default registry, served at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswersSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voxiscribe_answers_saved_total",
			Help: "Answers written by autosave",
		},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxiscribe_submissions_total",
			Help: "Exam submissions by outcome (completed, repeat, error)",
		},
		[]string{"outcome"},
	)

	ManualGrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voxiscribe_manual_grades_total",
			Help: "Scores entered by teachers",
		},
	)

	Assemblies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxiscribe_video_assemblies_total",
			Help: "Proctoring video assemblies by status",
		},
		[]string{"status"},
	)

	ChunksUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voxiscribe_video_chunks_uploaded_total",
			Help: "Proctoring video chunks stored",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxiscribe_exam_cache_lookups_total",
			Help: "Exam bundle cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxiscribe_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware observes request durations labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
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
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
