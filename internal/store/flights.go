package store

import (
	"context"
	"database/sql"
	"fmt"

	"airline-reservation/internal/models"
)

// flightRow is the flat table shape of a flight
type flightRow struct {
	Code           string       `db:"code"`
	Name           string       `db:"name"`
	Origin         string       `db:"origin"`
	Destination    string       `db:"destination"`
	Departure      sql.NullTime `db:"departure"`
	Arrival        sql.NullTime `db:"arrival"`
	ExecutiveSeats int          `db:"executive_seats"`
	EconomySeats   int          `db:"economy_seats"`
	BusinessSeats  int          `db:"business_seats"`
	ExecutiveFare  float64      `db:"executive_fare"`
	EconomyFare    float64      `db:"economy_fare"`
	BusinessFare   float64      `db:"business_fare"`
}

func toFlightRow(f *models.Flight) flightRow {
	return flightRow{
		Code:           f.Code,
		Name:           f.Name,
		Origin:         f.Origin,
		Destination:    f.Destination,
		Departure:      sql.NullTime{Time: f.Departure, Valid: !f.Departure.IsZero()},
		Arrival:        sql.NullTime{Time: f.Arrival, Valid: !f.Arrival.IsZero()},
		ExecutiveSeats: f.Seats.Executive,
		EconomySeats:   f.Seats.Economy,
		BusinessSeats:  f.Seats.Business,
		ExecutiveFare:  f.Fares.Executive,
		EconomyFare:    f.Fares.Economy,
		BusinessFare:   f.Fares.Business,
	}
}

func (r flightRow) toModel() models.Flight {
	f := models.Flight{
		Code:        r.Code,
		Name:        r.Name,
		Origin:      r.Origin,
		Destination: r.Destination,
		Seats: models.SeatInventory{
			Executive: r.ExecutiveSeats,
			Economy:   r.EconomySeats,
			Business:  r.BusinessSeats,
		},
		Fares: models.Fares{
			Executive: r.ExecutiveFare,
			Economy:   r.EconomyFare,
			Business:  r.BusinessFare,
		},
	}
	if r.Departure.Valid {
		f.Departure = r.Departure.Time
	}
	if r.Arrival.Valid {
		f.Arrival = r.Arrival.Time
	}
	return f
}

const flightColumns = `code, name, origin, destination, departure, arrival,
	executive_seats, economy_seats, business_seats, executive_fare, economy_fare, business_fare`

// CreateFlight inserts a flight
func (s *Store) CreateFlight(ctx context.Context, f *models.Flight) error {
	query := `
		INSERT INTO flights (` + flightColumns + `)
		VALUES (:code, :name, :origin, :destination, :departure, :arrival,
			:executive_seats, :economy_seats, :business_seats, :executive_fare, :economy_fare, :business_fare)`

	if _, err := s.db.NamedExecContext(ctx, query, toFlightRow(f)); err != nil {
		return fmt.Errorf("failed to insert flight %s: %w", f.Code, err)
	}
	return nil
}

// UpdateFlight overwrites schedule, seats and fares of a flight
func (s *Store) UpdateFlight(ctx context.Context, f *models.Flight) error {
	query := `
		UPDATE flights SET name = :name, origin = :origin, destination = :destination,
			departure = :departure, arrival = :arrival,
			executive_seats = :executive_seats, economy_seats = :economy_seats, business_seats = :business_seats,
			executive_fare = :executive_fare, economy_fare = :economy_fare, business_fare = :business_fare
		WHERE code = :code`

	res, err := s.db.NamedExecContext(ctx, query, toFlightRow(f))
	if err != nil {
		return fmt.Errorf("failed to update flight %s: %w", f.Code, err)
	}
	return expectOne(res, "update flight "+f.Code)
}

// DeleteFlight removes a flight
func (s *Store) DeleteFlight(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM flights WHERE code = $1", code)
	if err != nil {
		return fmt.Errorf("failed to delete flight %s: %w", code, err)
	}
	return expectOne(res, "delete flight "+code)
}

// ListFlights retrieves all flights in creation order
func (s *Store) ListFlights(ctx context.Context) ([]models.Flight, error) {
	var rows []flightRow
	err := s.db.SelectContext(ctx, &rows, "SELECT "+flightColumns+" FROM flights ORDER BY created_at, code")
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}

	flights := make([]models.Flight, 0, len(rows))
	for _, r := range rows {
		flights = append(flights, r.toModel())
	}
	return flights, nil
}
