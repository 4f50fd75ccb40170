package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RefundService handles refunds for cancelled reservations
type RefundService struct {
	store             *reservation.Store
	eventPublisher    EventPublisher
	defaultPercentage int
	logger            *zap.Logger
}

// NewRefundService creates a new refund service. defaultPercentage applies
// to automatic refunds and to requests that omit a percentage.
func NewRefundService(store *reservation.Store, publisher EventPublisher, defaultPercentage int) *RefundService {
	return &RefundService{
		store:             store,
		eventPublisher:    publisherOrNoop(publisher),
		defaultPercentage: defaultPercentage,
		logger:            util.GetLogger(),
	}
}

// RefundRequest represents a request to refund a cancelled reservation
type RefundRequest struct {
	// Percentage defaults to the service's default percentage.
	Percentage *int `json:"percentage,omitempty" binding:"omitempty,min=0,max=100"`
	// Amount defaults to Percentage of the reservation's fare.
	Amount *float64            `json:"amount,omitempty" binding:"omitempty,min=0"`
	Reason string              `json:"reason" binding:"required,refundreason"`
	Status models.RefundStatus `json:"status,omitempty"`
}

// AutoRefundSummary reports the outcome of AutoProcessAll
type AutoRefundSummary struct {
	Processed   int     `json:"processed"`
	Skipped     int     `json:"skipped"`
	Failed      int     `json:"failed"`
	TotalAmount float64 `json:"total_amount"`
}

// ProcessRefund records a refund for a cancelled reservation
func (s *RefundService) ProcessRefund(ctx context.Context, reservationID int64, req RefundRequest) (models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.ProcessRefund")
	defer span.End()
	return s.process(ctx, span, reservationID, req, false)
}

func (s *RefundService) process(ctx context.Context, span trace.Span, reservationID int64, req RefundRequest, firstOnly bool) (models.Refund, error) {
	pct := s.defaultPercentage
	if req.Percentage != nil {
		pct = *req.Percentage
	}

	var amount float64
	if req.Amount != nil {
		amount = *req.Amount
	} else {
		quoted, err := s.store.QuoteRefund(ctx, reservationID, pct)
		if err != nil {
			return models.Refund{}, err
		}
		amount = quoted
	}

	start := time.Now()
	refund, err := s.store.ProcessRefund(ctx, reservation.RefundRequest{
		ReservationID: reservationID,
		Amount:        amount,
		Reason:        req.Reason,
		Percentage:    pct,
		Status:        req.Status,
		FirstOnly:     firstOnly,
	})
	observe(span, "process_refund", start, err)
	if err != nil {
		return models.Refund{}, err
	}

	s.recorded(ctx, refund, models.EventTypeRefundCreated)
	return refund, nil
}

// SettleRefund completes a pending refund
func (s *RefundService) SettleRefund(ctx context.Context, refundID int64, status models.RefundStatus) (models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.SettleRefund")
	defer span.End()

	start := time.Now()
	refund, err := s.store.SettleRefund(ctx, refundID, status)
	observe(span, "settle_refund", start, err)
	if err != nil {
		return models.Refund{}, err
	}

	s.recorded(ctx, refund, models.EventTypeRefundSettled)
	return refund, nil
}

// AutoRefund refunds a cancelled reservation at the default percentage. A
// reservation that already has a refund in any status is left alone and
// reservation.ErrRefundExists is returned.
func (s *RefundService) AutoRefund(ctx context.Context, reservationID int64) (models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.AutoRefund")
	defer span.End()

	pct := s.defaultPercentage
	return s.process(ctx, span, reservationID, RefundRequest{
		Percentage: &pct,
		Reason:     models.RefundReasonAutoProcessed,
		Status:     models.RefundStatusProcessed,
	}, true)
}

// AutoProcessAll auto-refunds every cancelled reservation that has no
// refund yet. Failures are counted and logged; the sweep continues.
func (s *RefundService) AutoProcessAll(ctx context.Context) (AutoRefundSummary, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.AutoProcessAll")
	defer span.End()

	cancelled, err := s.store.ListReservations(ctx, models.ReservationStatusCancelled)
	if err != nil {
		return AutoRefundSummary{}, err
	}

	var summary AutoRefundSummary
	for _, r := range cancelled {
		refund, err := s.AutoRefund(ctx, r.ID)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			if errors.Is(err, reservation.ErrRefundExists) || errors.Is(err, reservation.ErrReservationNotCancelled) {
				summary.Skipped++
				continue
			}
			summary.Failed++
			s.logger.Error("Auto refund failed", zap.Int64("reservation_id", r.ID), zap.Error(err))
			continue
		}
		summary.Processed++
		summary.TotalAmount += refund.Amount
	}

	s.logger.Info("Auto refund sweep finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Float64("total_amount", summary.TotalAmount))
	return summary, nil
}

// GetRefund retrieves a refund by ID
func (s *RefundService) GetRefund(ctx context.Context, id int64) (models.Refund, error) {
	return s.store.GetRefund(ctx, id)
}

// ListRefunds lists refunds, optionally filtered by status
func (s *RefundService) ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("list refunds: status %q: %w", status, reservation.ErrInvalidRefundStatus)
	}
	return s.store.ListRefunds(ctx, status)
}

func (s *RefundService) recorded(ctx context.Context, refund models.Refund, eventType string) {
	util.RefundsTotal.WithLabelValues(string(refund.Status)).Inc()
	if refund.Status == models.RefundStatusProcessed {
		util.RefundAmountTotal.Add(refund.Amount)
	}
	s.logger.Info("Refund recorded",
		zap.Int64("refund_id", refund.ID),
		zap.Int64("reservation_id", refund.ReservationID),
		zap.String("status", string(refund.Status)),
		zap.Float64("amount", refund.Amount))

	event := &models.RefundEvent{
		BaseEvent:     models.NewBaseEvent(eventType),
		RefundID:      refund.ID,
		ReservationID: refund.ReservationID,
		Amount:        refund.Amount,
		Status:        refund.Status,
		Reason:        refund.Reason,
	}
	if err := s.eventPublisher.PublishRefund(ctx, event); err != nil {
		s.logger.Error("Failed to publish refund event", zap.Error(err))
	}
}
