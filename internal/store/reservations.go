package store

import (
	"context"
	"fmt"

	"airline-reservation/internal/models"

	"github.com/jmoiron/sqlx"
)

const reservationColumns = `id, flight_code, customer_id, seat_class, seat_number, travel_date,
	status, fare, created_at, updated_at`

// CreateReservation inserts a reservation
func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (:id, :flight_code, :customer_id, :seat_class, :seat_number, :travel_date,
			:status, :fare, :created_at, :updated_at)`

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, r); err != nil {
			return fmt.Errorf("failed to insert reservation %d: %w", r.ID, err)
		}
		return advanceSequence(ctx, tx, seqReservations, r.ID)
	})
}

// UpdateReservation persists a status change
func (s *Store) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	return updateReservationStatus(ctx, s.db, r)
}

func updateReservationStatus(ctx context.Context, db sqlx.ExecerContext, r *models.Reservation) error {
	res, err := db.ExecContext(ctx,
		"UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3",
		r.Status, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update reservation %d: %w", r.ID, err)
	}
	return expectOne(res, fmt.Sprintf("update reservation %d", r.ID))
}

// ListReservations retrieves all reservations ordered by id
func (s *Store) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.SelectContext(ctx, &reservations, "SELECT "+reservationColumns+" FROM reservations ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}
