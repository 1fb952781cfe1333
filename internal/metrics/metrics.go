// Package metrics exposes the terminal's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_http_requests_total",
		Help: "HTTP requests handled by the payments terminal.",
	}, []string{"method", "route", "status"})

	// RequestDuration observes HTTP request latency by route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "terminal_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// PaymentsProcessed counts committed payments by method and split mode.
	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_payments_processed_total",
		Help: "Payments successfully committed to the POS core.",
	}, []string{"method", "split"})

	// PaymentFailures counts payment submissions rejected by the POS core.
	PaymentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terminal_payment_failures_total",
		Help: "Payment submissions that failed at the POS core.",
	})

	// SplitsApplied counts accepted bill splits.
	SplitsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "terminal_splits_applied_total",
		Help: "Bill splits accepted by the POS core.",
	})

	// ConfigRefreshes counts configuration resolutions by source.
	ConfigRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "terminal_config_refreshes_total",
		Help: "Configuration resolutions by source (remote, cache, broadcast).",
	}, []string{"source"})
)
