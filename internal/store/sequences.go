package store

import (
	"context"
	"fmt"

	"airline-reservation/internal/reservation"

	"github.com/jmoiron/sqlx"
)

const (
	seqCustomers    = "customers"
	seqReservations = "reservations"
	seqRefunds      = "refunds"
)

// advanceSequence records that id has been minted. The stored value only
// moves forward, so deleting the newest row does not free its id.
func advanceSequence(ctx context.Context, tx *sqlx.Tx, name string, id int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO id_sequences (name, next_id) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET next_id = GREATEST(id_sequences.next_id, EXCLUDED.next_id)`,
		name, id+1)
	if err != nil {
		return fmt.Errorf("failed to advance %s sequence: %w", name, err)
	}
	return nil
}

// NextIDs returns the persisted sequences
func (s *Store) NextIDs(ctx context.Context) (reservation.Sequences, error) {
	var rows []struct {
		Name   string `db:"name"`
		NextID int64  `db:"next_id"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT name, next_id FROM id_sequences"); err != nil {
		return reservation.Sequences{}, fmt.Errorf("failed to read sequences: %w", err)
	}

	var seq reservation.Sequences
	for _, r := range rows {
		switch r.Name {
		case seqCustomers:
			seq.Customer = r.NextID
		case seqReservations:
			seq.Reservation = r.NextID
		case seqRefunds:
			seq.Refund = r.NextID
		}
	}
	return seq, nil
}

// inTx runs fn in a transaction and commits when it succeeds
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
