package reservation

import (
	"context"
	"fmt"
	"math"
	"sort"

	"airline-reservation/internal/models"
)

// RefundRequest carries the fields of a refund for a cancelled reservation
type RefundRequest struct {
	ReservationID int64
	Amount        float64
	Reason        string
	Percentage    int
	// Status is the state the refund should end in. Empty means PROCESSED.
	Status models.RefundStatus
	// FirstOnly fails with ErrRefundExists when the reservation already has
	// a refund in any status.
	FirstOnly bool
}

// ProcessRefund records a refund against a cancelled reservation. The refund
// is created PENDING and, unless the request asks to keep it pending, is
// settled in the same step: PROCESSED and PARTIAL move the reservation to
// REFUNDED, REJECTED leaves it CANCELLED.
func (s *Store) ProcessRefund(ctx context.Context, req RefundRequest) (models.Refund, error) {
	target := req.Status
	if target == "" {
		target = models.RefundStatusProcessed
	}

	unlock, err := s.mu.lock(ctx, "process refund")
	if err != nil {
		return models.Refund{}, err
	}
	defer unlock()

	r, ok := s.reservations[req.ReservationID]
	if !ok {
		return models.Refund{}, fmt.Errorf("refund reservation %d: %w", req.ReservationID, ErrUnknownReservation)
	}
	if r.Status != models.ReservationStatusCancelled {
		return models.Refund{}, fmt.Errorf("refund reservation %d in status %s: %w",
			req.ReservationID, r.Status, ErrReservationNotCancelled)
	}
	if req.Percentage < 0 || req.Percentage > 100 {
		return models.Refund{}, fmt.Errorf("refund reservation %d: %d%%: %w",
			req.ReservationID, req.Percentage, ErrInvalidPercentage)
	}
	if !models.ValidRefundReason(req.Reason) {
		return models.Refund{}, fmt.Errorf("refund reservation %d: reason %q: %w",
			req.ReservationID, req.Reason, ErrInvalidRefundReason)
	}
	if !target.Valid() {
		return models.Refund{}, fmt.Errorf("refund reservation %d: status %q: %w",
			req.ReservationID, target, ErrInvalidRefundStatus)
	}
	if req.Amount < 0 || req.Amount > r.Fare || math.IsNaN(req.Amount) {
		return models.Refund{}, fmt.Errorf("refund reservation %d: amount %.2f of fare %.2f: %w",
			req.ReservationID, req.Amount, r.Fare, ErrInvalidRefundAmount)
	}
	for _, existing := range s.refunds {
		if existing.ReservationID != r.ID {
			continue
		}
		if req.FirstOnly {
			return models.Refund{}, fmt.Errorf("refund reservation %d: refund %d is %s: %w",
				r.ID, existing.ID, existing.Status, ErrRefundExists)
		}
		if existing.Status == models.RefundStatusPending {
			return models.Refund{}, fmt.Errorf("refund reservation %d: refund %d: %w",
				r.ID, existing.ID, ErrRefundPending)
		}
	}

	now := s.now()
	refund := models.Refund{
		ID:            s.nextRefundID,
		ReservationID: r.ID,
		Amount:        req.Amount,
		Status:        models.RefundStatusPending,
		Reason:        req.Reason,
		Percentage:    req.Percentage,
		CreatedAt:     now,
	}
	if target != models.RefundStatusPending {
		refund.Status = target
		refund.ProcessedAt = &now
	}

	var settled *models.Reservation
	if refund.Status.Settles() {
		updated, err := s.advance(r, models.ReservationStatusRefunded)
		if err != nil {
			return models.Refund{}, fmt.Errorf("refund reservation %d: %w", r.ID, err)
		}
		settled = &updated
	}

	// spent even when the write fails
	s.nextRefundID++
	if err := s.repo.CreateRefund(ctx, &refund, settled); err != nil {
		return models.Refund{}, persistErr("create refund", err)
	}

	if settled != nil {
		*r = *settled
	}
	s.refunds[refund.ID] = &refund
	return refund, nil
}

// SettleRefund completes a pending refund. PROCESSED and PARTIAL move the
// reservation to REFUNDED; REJECTED leaves it CANCELLED.
func (s *Store) SettleRefund(ctx context.Context, refundID int64, status models.RefundStatus) (models.Refund, error) {
	if !status.Valid() || status == models.RefundStatusPending {
		return models.Refund{}, fmt.Errorf("settle refund %d: status %q: %w", refundID, status, ErrInvalidRefundStatus)
	}

	unlock, err := s.mu.lock(ctx, "settle refund")
	if err != nil {
		return models.Refund{}, err
	}
	defer unlock()

	refund, ok := s.refunds[refundID]
	if !ok {
		return models.Refund{}, fmt.Errorf("settle refund %d: %w", refundID, ErrUnknownRefund)
	}
	if refund.Status != models.RefundStatusPending {
		return models.Refund{}, fmt.Errorf("settle refund %d: %s -> %s: %w",
			refundID, refund.Status, status, ErrInvalidStatusTransition)
	}
	r, ok := s.reservations[refund.ReservationID]
	if !ok {
		return models.Refund{}, fmt.Errorf("settle refund %d: %w", refundID, ErrUnknownReservation)
	}
	var settled *models.Reservation
	if status.Settles() {
		next, err := s.advance(r, models.ReservationStatusRefunded)
		if err != nil {
			return models.Refund{}, fmt.Errorf("settle refund %d: reservation %w", refundID, err)
		}
		settled = &next
	}

	now := s.now()
	updated := *refund
	updated.Status = status
	updated.ProcessedAt = &now
	if err := s.repo.UpdateRefund(ctx, &updated, settled); err != nil {
		return models.Refund{}, persistErr("settle refund", err)
	}

	if settled != nil {
		*r = *settled
	}
	*refund = updated
	return updated, nil
}

// GetRefund returns a refund by id
func (s *Store) GetRefund(ctx context.Context, id int64) (models.Refund, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.Refund{}, err
	}
	defer unlock()

	r, ok := s.refunds[id]
	if !ok {
		return models.Refund{}, fmt.Errorf("refund %d: %w", id, ErrUnknownRefund)
	}
	return *r, nil
}

// ListRefunds returns refunds ordered by id. An empty status returns all.
func (s *Store) ListRefunds(ctx context.Context, status models.RefundStatus) ([]models.Refund, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.Refund, 0, len(s.refunds))
	for _, r := range s.refunds {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// QuoteRefund returns percentage of the reservation's fare, rounded to cents
func (s *Store) QuoteRefund(ctx context.Context, reservationID int64, percentage int) (float64, error) {
	if percentage < 0 || percentage > 100 {
		return 0, fmt.Errorf("quote refund %d: %d%%: %w", reservationID, percentage, ErrInvalidPercentage)
	}
	r, err := s.GetReservation(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	return math.Round(r.Fare*float64(percentage)) / 100, nil
}
