package service

import (
	"context"
	"errors"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"

	"go.opentelemetry.io/otel/trace"
)

// EventPublisher is satisfied by *broker.EventPublisher
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, event *models.ReservationCreatedEvent) error
	PublishReservationCancelled(ctx context.Context, event *models.ReservationCancelledEvent) error
	PublishRefund(ctx context.Context, event *models.RefundEvent) error
	PublishFlight(ctx context.Context, event *models.FlightEvent) error
}

// IdempotencyStore is satisfied by *redisclient.Client
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (claimed bool, existing string, err error)
	CompleteIdempotencyKey(ctx context.Context, key, value string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// ErrRequestInFlight is returned when a request reuses the idempotency key of
// one that has not finished yet.
var ErrRequestInFlight = &reservation.Error{Kind: reservation.KindConflict, Msg: "request with this idempotency key is in progress"}

type noopPublisher struct{}

func (noopPublisher) PublishReservationCreated(context.Context, *models.ReservationCreatedEvent) error {
	return nil
}

func (noopPublisher) PublishReservationCancelled(context.Context, *models.ReservationCancelledEvent) error {
	return nil
}

func (noopPublisher) PublishRefund(context.Context, *models.RefundEvent) error { return nil }

func (noopPublisher) PublishFlight(context.Context, *models.FlightEvent) error { return nil }

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// observe records store latency and busy rejections for one operation and
// marks the span on failure.
func observe(span trace.Span, op string, start time.Time, err error) {
	util.StoreOperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}
	if errors.Is(err, reservation.ErrStoreBusy) {
		util.StoreBusyTotal.WithLabelValues(op).Inc()
	}
	if span != nil && reservation.KindOf(err) == reservation.KindInternal {
		util.RecordError(span, err)
	}
}
