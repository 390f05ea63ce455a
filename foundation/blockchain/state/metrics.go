package state

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "msgpool"

var (
	metricSelectDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "selector",
			Name:      "duration_seconds",
			Help:      "Time taken to select the messages for a block.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"variant"},
	)

	metricSelectErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "selector",
			Name:      "errors_total",
			Help:      "Selections that failed, by cause.",
		},
		[]string{"cause"},
	)

	metricMessagesSelected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "selector",
			Name:      "messages_selected_total",
			Help:      "Messages included in produced blocks.",
		},
	)

	metricGasUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chain",
			Name:      "gas_used",
			Help:      "Gas used by the last produced block.",
		},
	)

	metricHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Height of the head of the chain.",
		},
	)

	metricPoolSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "mempool",
			Name:      "messages",
			Help:      "Messages waiting in the pool.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricSelectDuration,
		metricSelectErrors,
		metricMessagesSelected,
		metricGasUsed,
		metricHeight,
		metricPoolSize,
	)
}
