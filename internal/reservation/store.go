// Package reservation holds the authoritative in-memory state of the airline:
// customers, flights, reservations and refunds. It mints identifiers,
// enforces referential and lifecycle rules and derives statistics on demand.
package reservation

import (
	"context"
	"fmt"
	"time"

	"airline-reservation/internal/models"
)

// DefaultLockTimeout bounds how long a writer waits for the store.
const DefaultLockTimeout = 250 * time.Millisecond

// Store is safe for concurrent use. Mutations are serialized; reads share.
type Store struct {
	mu   *rwLock
	repo Repository
	now  func() time.Time

	customers    map[int64]*models.Customer
	flights      map[string]*models.Flight // keyed by models.CodeKey
	reservations map[int64]*models.Reservation
	refunds      map[int64]*models.Refund

	// insertion order, for stable listings
	flightOrder []string

	nextCustomerID    int64
	nextReservationID int64
	nextRefundID      int64
}

// Option configures a Store
type Option func(*Store)

// WithRepository writes every mutation through repo before applying it.
func WithRepository(repo Repository) Option {
	return func(s *Store) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithClock overrides the clock used for timestamps and travel date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLockTimeout sets how long writers wait before failing with ErrStoreBusy.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.mu = newRWLock(d)
		}
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		mu:                newRWLock(DefaultLockTimeout),
		repo:              nopRepository{},
		now:               time.Now,
		customers:         make(map[int64]*models.Customer),
		flights:           make(map[string]*models.Flight),
		reservations:      make(map[int64]*models.Reservation),
		refunds:           make(map[int64]*models.Refund),
		nextCustomerID:    1,
		nextReservationID: 1,
		nextRefundID:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the store contents with everything the loader returns.
// Id assignment resumes at the persisted sequences, or after the highest
// loaded ids when those are greater. Records are trusted as already
// consistent; the repository is not written to.
func (s *Store) Load(ctx context.Context, loader Loader) error {
	customers, err := loader.ListCustomers(ctx)
	if err != nil {
		return persistErr("load customers", err)
	}
	flights, err := loader.ListFlights(ctx)
	if err != nil {
		return persistErr("load flights", err)
	}
	reservations, err := loader.ListReservations(ctx)
	if err != nil {
		return persistErr("load reservations", err)
	}
	refunds, err := loader.ListRefunds(ctx)
	if err != nil {
		return persistErr("load refunds", err)
	}
	seq, err := loader.NextIDs(ctx)
	if err != nil {
		return persistErr("load sequences", err)
	}

	next := NewStore()
	for i := range customers {
		c := customers[i]
		next.customers[c.ID] = &c
		if c.ID >= next.nextCustomerID {
			next.nextCustomerID = c.ID + 1
		}
	}
	for i := range flights {
		f := flights[i]
		key := models.CodeKey(f.Code)
		if _, dup := next.flights[key]; dup {
			return fmt.Errorf("load flight %s: %w", f.Code, ErrDuplicateFlightCode)
		}
		next.flights[key] = &f
		next.flightOrder = append(next.flightOrder, key)
	}
	for i := range reservations {
		r := reservations[i]
		next.reservations[r.ID] = &r
		if r.ID >= next.nextReservationID {
			next.nextReservationID = r.ID + 1
		}
	}
	for i := range refunds {
		r := refunds[i]
		next.refunds[r.ID] = &r
		if r.ID >= next.nextRefundID {
			next.nextRefundID = r.ID + 1
		}
	}

	next.nextCustomerID = max(next.nextCustomerID, seq.Customer)
	next.nextReservationID = max(next.nextReservationID, seq.Reservation)
	next.nextRefundID = max(next.nextRefundID, seq.Refund)

	unlock, err := s.mu.lock(ctx, "load")
	if err != nil {
		return err
	}
	defer unlock()

	s.customers = next.customers
	s.flights = next.flights
	s.flightOrder = next.flightOrder
	s.reservations = next.reservations
	s.refunds = next.refunds
	s.nextCustomerID = next.nextCustomerID
	s.nextReservationID = next.nextReservationID
	s.nextRefundID = next.nextRefundID
	return nil
}

func (s *Store) today() time.Time {
	return civilDate(s.now())
}

// civilDate drops the clock and zone so calendar days compare directly.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
