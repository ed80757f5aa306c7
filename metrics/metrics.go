package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsTotal counts booking attempts by outcome
	// (reserved, capacity_exceeded, rejected, transient_error).
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "bookings_total",
			Help:      "The total number of booking attempts by result",
		},
		[]string{"result"},
	)

	// OrdersExpiredTotal counts orders released by the reaper.
	OrdersExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "boxoffice",
			Name:      "orders_expired_total",
			Help:      "The total number of orders expired after their payment window elapsed",
		},
	)

	// SweepDuration The total time spent sweeping expired orders (summary with quantiles 0.5, 0.9, and 0.99)
	SweepDuration = promauto.NewSummary(
		prometheus.SummaryOpts{
			Namespace:  "boxoffice",
			Name:       "sweep_duration_seconds",
			Help:       "The total time spent sweeping expired orders",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)

	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)
)
