package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loancalc_http_requests_total",
		Help: "HTTP requests served, by path and status code.",
	}, []string{"path", "code"})

	computeSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loancalc_schedule_compute_seconds",
		Help:    "Wall time spent computing one amortization schedule.",
		Buckets: prometheus.DefBuckets,
	})
)

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler func with the request counter.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		requestsTotal.WithLabelValues(path, strconv.Itoa(recorder.status)).Inc()
	}
}
