package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	GradingResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grading_results_total",
			Help: "Graded answers by question type and status",
		},
		[]string{"type", "status"},
	)

	CorrectionBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "correction_batches_total",
			Help: "Correction batches by outcome",
		},
		[]string{"outcome"},
	)

	CorrectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "correction_batch_duration_seconds",
			Help:    "Time spent correcting one batch, persistence included",
			Buckets: prometheus.DefBuckets,
		},
	)

	SkippedEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "correction_skipped_entries_total",
			Help: "Batch entries skipped by reason",
		},
		[]string{"reason"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, GradingResults,
			CorrectionBatches, CorrectionDuration, SkippedEntries)
	})
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
