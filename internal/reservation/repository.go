package reservation

import (
	"context"

	"airline-reservation/internal/models"
)

// Repository is the write side of a persistence adapter. The store calls it
// while holding the exclusive lock and before changing memory, so a failed
// write leaves the store untouched.
type Repository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error

	CreateFlight(ctx context.Context, f *models.Flight) error
	UpdateFlight(ctx context.Context, f *models.Flight) error
	DeleteFlight(ctx context.Context, code string) error

	CreateReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error

	// CreateRefund and UpdateRefund write settled, when non-nil, in the same
	// transaction as the refund.
	CreateRefund(ctx context.Context, r *models.Refund, settled *models.Reservation) error
	UpdateRefund(ctx context.Context, r *models.Refund, settled *models.Reservation) error
}

// Loader is the read side of a persistence adapter, used to hydrate the store.
type Loader interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListFlights(ctx context.Context) ([]models.Flight, error)
	ListReservations(ctx context.Context) ([]models.Reservation, error)
	ListRefunds(ctx context.Context) ([]models.Refund, error)
	NextIDs(ctx context.Context) (Sequences, error)
}

// Sequences are the persisted next ids per record type. They outlive deleted
// records; zero means nothing was recorded.
type Sequences struct {
	Customer    int64
	Reservation int64
	Refund      int64
}

type nopRepository struct{}

func (nopRepository) CreateCustomer(context.Context, *models.Customer) error       { return nil }
func (nopRepository) UpdateCustomer(context.Context, *models.Customer) error       { return nil }
func (nopRepository) DeleteCustomer(context.Context, int64) error                  { return nil }
func (nopRepository) CreateFlight(context.Context, *models.Flight) error           { return nil }
func (nopRepository) UpdateFlight(context.Context, *models.Flight) error           { return nil }
func (nopRepository) DeleteFlight(context.Context, string) error                   { return nil }
func (nopRepository) CreateReservation(context.Context, *models.Reservation) error { return nil }
func (nopRepository) UpdateReservation(context.Context, *models.Reservation) error { return nil }
func (nopRepository) CreateRefund(context.Context, *models.Refund, *models.Reservation) error {
	return nil
}
func (nopRepository) UpdateRefund(context.Context, *models.Refund, *models.Reservation) error {
	return nil
}
