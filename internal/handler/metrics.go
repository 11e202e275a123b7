package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	paymentsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "payments_processed_total",
			Help:      "Total number of successfully processed payment events",
		},
	)

	paymentsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "payments_failed_total",
			Help:      "Total number of failed payment event processing attempts",
		},
	)

	paymentsDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "payments_dlq_total",
			Help:      "Total number of payment events written to DLQ",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)

	paymentProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "payment_processing_duration_seconds",
			Help:      "Histogram of payment event processing durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	paymentsInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "order_fulfillment",
			Subsystem: "payments_consumer",
			Name:      "payments_in_progress",
			Help:      "Number of payment events currently being processed",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		paymentsProcessed,
		paymentsFailed,
		paymentsDLQ,
		commitErrors,
		paymentProcessingDuration,
		paymentsInProgress,
	)
}
