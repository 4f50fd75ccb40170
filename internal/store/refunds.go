package store

import (
	"context"
	"fmt"

	"airline-reservation/internal/models"

	"github.com/jmoiron/sqlx"
)

const refundColumns = `id, reservation_id, amount, status, reason, percentage, created_at, processed_at`

// CreateRefund inserts a refund and, when settled is set, the reservation's
// new status in the same transaction
func (s *Store) CreateRefund(ctx context.Context, r *models.Refund, settled *models.Reservation) error {
	query := `
		INSERT INTO refunds (` + refundColumns + `)
		VALUES (:id, :reservation_id, :amount, :status, :reason, :percentage, :created_at, :processed_at)`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, r); err != nil {
			return fmt.Errorf("failed to insert refund %d: %w", r.ID, err)
		}
		if err := advanceSequence(ctx, tx, seqRefunds, r.ID); err != nil {
			return err
		}
		if settled != nil {
			return updateReservationStatus(ctx, tx, settled)
		}
		return nil
	})
}

// UpdateRefund persists a settlement together with the reservation it settles
func (s *Store) UpdateRefund(ctx context.Context, r *models.Refund, settled *models.Reservation) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE refunds SET status = $1, processed_at = $2 WHERE id = $3",
			r.Status, r.ProcessedAt, r.ID)
		if err != nil {
			return fmt.Errorf("failed to update refund %d: %w", r.ID, err)
		}
		if err := expectOne(res, fmt.Sprintf("update refund %d", r.ID)); err != nil {
			return err
		}
		if settled != nil {
			return updateReservationStatus(ctx, tx, settled)
		}
		return nil
	})
}

// ListRefunds retrieves all refunds ordered by id
func (s *Store) ListRefunds(ctx context.Context) ([]models.Refund, error) {
	var refunds []models.Refund
	err := s.db.SelectContext(ctx, &refunds, "SELECT "+refundColumns+" FROM refunds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return refunds, nil
}
