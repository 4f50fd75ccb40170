package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Total number of reservations created",
	}, []string{"seat_class", "status"})

	ReservationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservations_failed_total",
		Help: "Total number of rejected reservation requests",
	}, []string{"reason"})

	ReservationsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_cancelled_total",
		Help: "Total number of cancelled reservations",
	})

	IdempotentReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_idempotent_replays_total",
		Help: "Reservation requests answered from an earlier idempotency key",
	})

	RefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refunds_total",
		Help: "Total number of refunds recorded, by final status",
	}, []string{"status"})

	RefundAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refund_amount_total",
		Help: "Sum of processed refund amounts",
	})

	FareUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fare_updates_total",
		Help: "Total number of fare changes",
	}, []string{"kind"})

	StoreBusyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_busy_total",
		Help: "Mutations rejected because the store lock could not be acquired in time",
	}, []string{"operation"})

	StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_latency_seconds",
		Help:    "Latency of reservation store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of domain events published",
	}, []string{"type", "result"})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_consumed_total",
		Help: "Total number of consumed events, by outcome",
	}, []string{"type", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
