// Package metrics constructs the metrics the application will track.
package metrics

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "http_api"

var (
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by status.",
		},
		[]string{"status"},
	)

	errs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Requests that returned an error.",
		},
	)

	panics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Requests that panicked.",
		},
	)

	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time taken to handle a request.",
		},
		[]string{"method", "path"},
	)

	goroutines = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Number of goroutines sampled at scrape time.",
		},
		func() float64 { return float64(runtime.NumGoroutine()) },
	)
)

func init() {
	prometheus.MustRegister(requests, errs, panics, duration, goroutines)
}

// AddRequest records a handled request.
func AddRequest(method string, path string, status int, took time.Duration) {
	requests.WithLabelValues(strconv.Itoa(status)).Inc()
	duration.WithLabelValues(method, path).Observe(took.Seconds())
}

// AddError increments the errors metric.
func AddError() {
	errs.Inc()
}

// AddPanic increments the panics metric.
func AddPanic() {
	panics.Inc()
}
