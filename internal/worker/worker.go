package worker

import (
	"context"
	"errors"
	"fmt"

	"airline-reservation/internal/broker"
	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/service"
	"airline-reservation/internal/util"

	"go.uber.org/zap"
)

// MessageSource is satisfied by *broker.Consumer
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// AutoRefunder is satisfied by *service.RefundService
type AutoRefunder interface {
	AutoRefund(ctx context.Context, reservationID int64) (models.Refund, error)
	AutoProcessAll(ctx context.Context) (service.AutoRefundSummary, error)
}

// RefundWorker refunds reservations as their cancellation events arrive
type RefundWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	refunds      AutoRefunder
	logger       *zap.Logger
}

// NewRefundWorker creates a new refund worker
func NewRefundWorker(consumer MessageSource, refunds AutoRefunder) *RefundWorker {
	w := &RefundWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		refunds:      refunds,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnReservationCancelled(w.handleReservationCancelled)
	w.eventHandler.OnRefundSettled(w.handleRefundSettled)
	return w
}

// Start consumes events until ctx is cancelled
func (w *RefundWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting refund worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RefundWorker) Stop() error {
	w.logger.Info("Stopping refund worker")
	return w.consumer.Close()
}

// handleReservationCancelled is idempotent: events for reservations that
// already have a refund, including a rejected one, are acknowledged.
func (w *RefundWorker) handleReservationCancelled(ctx context.Context, event *models.ReservationCancelledEvent) error {
	ctx, span := util.StartSpan(ctx, "RefundWorker.ReservationCancelled")
	defer span.End()

	refund, err := w.refunds.AutoRefund(ctx, event.ReservationID)
	switch {
	case err == nil:
		w.logger.Info("Auto refund issued",
			zap.Int64("reservation_id", event.ReservationID),
			zap.Int64("refund_id", refund.ID),
			zap.Float64("amount", refund.Amount))
		return nil
	case errors.Is(err, reservation.ErrReservationNotCancelled),
		errors.Is(err, reservation.ErrRefundExists),
		errors.Is(err, reservation.ErrRefundPending),
		errors.Is(err, reservation.ErrUnknownReservation):
		w.logger.Debug("Skipping auto refund",
			zap.Int64("reservation_id", event.ReservationID),
			zap.Error(err))
		return nil
	default:
		util.RecordError(span, err)
		return fmt.Errorf("failed to auto refund reservation %d: %w", event.ReservationID, err)
	}
}

func (w *RefundWorker) handleRefundSettled(_ context.Context, event *models.RefundEvent) error {
	w.logger.Info("Refund settled",
		zap.Int64("refund_id", event.RefundID),
		zap.String("status", string(event.Status)))
	return nil
}
