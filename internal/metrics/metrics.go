// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ParsedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qti_parsed_items_total",
			Help: "Items returned by parse calls",
		},
		[]string{"version"},
	)

	ParseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qti_parse_errors_total",
			Help: "Errors reported by parse calls",
		},
		[]string{"version"},
	)

	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qti_parse_duration_seconds",
			Help:    "Time spent parsing documents",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"version"},
	)

	// result: correct/incorrect/manual
	ScoredItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qti_scored_items_total",
			Help: "Items scored by the scoring engine",
		},
		[]string{"result"},
	)

	// op: insert/reorder/correct_response/format/convert
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qti_mutations_total",
			Help: "Document mutations performed",
		},
		[]string{"op"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qti_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qti_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// ObserveParse records one parse call.
func ObserveParse(version string, items, errs int, took time.Duration) {
	ParsedItems.WithLabelValues(version).Add(float64(items))
	ParseErrors.WithLabelValues(version).Add(float64(errs))
	ParseDuration.WithLabelValues(version).Observe(took.Seconds())
}

func Handler() http.Handler { return promhttp.Handler() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests under their chi route pattern so path
// parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
