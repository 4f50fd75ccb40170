package reservation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"airline-reservation/internal/models"
)

// CreateFlight stores a new flight. Codes are unique ignoring case.
func (s *Store) CreateFlight(ctx context.Context, f models.Flight) (models.Flight, error) {
	f.Code = strings.TrimSpace(f.Code)
	if err := validateFlight(f); err != nil {
		return models.Flight{}, fmt.Errorf("create flight %s: %w", f.Code, err)
	}

	unlock, err := s.mu.lock(ctx, "create flight")
	if err != nil {
		return models.Flight{}, err
	}
	defer unlock()

	key := models.CodeKey(f.Code)
	if _, exists := s.flights[key]; exists {
		return models.Flight{}, fmt.Errorf("create flight %s: %w", f.Code, ErrDuplicateFlightCode)
	}
	if err := s.repo.CreateFlight(ctx, &f); err != nil {
		return models.Flight{}, persistErr("create flight", err)
	}

	s.flights[key] = &f
	s.flightOrder = append(s.flightOrder, key)
	return f, nil
}

// GetFlight looks a flight up by code, ignoring case
func (s *Store) GetFlight(ctx context.Context, code string) (models.Flight, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.Flight{}, err
	}
	defer unlock()

	f, ok := s.flights[models.CodeKey(code)]
	if !ok {
		return models.Flight{}, fmt.Errorf("flight %s: %w", code, ErrUnknownFlight)
	}
	return *f, nil
}

// ListFlights returns flights in creation order
func (s *Store) ListFlights(ctx context.Context) ([]models.Flight, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.Flight, 0, len(s.flightOrder))
	for _, key := range s.flightOrder {
		out = append(out, *s.flights[key])
	}
	return out, nil
}

// SearchFlights returns flights on a route. Empty origin or destination
// matches any; comparison ignores case.
func (s *Store) SearchFlights(ctx context.Context, origin, destination string) ([]models.Flight, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	var out []models.Flight
	for _, key := range s.flightOrder {
		f := s.flights[key]
		if origin != "" && !strings.EqualFold(f.Origin, origin) {
			continue
		}
		if destination != "" && !strings.EqualFold(f.Destination, destination) {
			continue
		}
		out = append(out, *f)
	}
	return out, nil
}

// UpdateFlight replaces the schedule and seat inventory of an existing flight.
// Fares are left untouched; use SetFares. No tier may shrink below the seats
// already held in it.
func (s *Store) UpdateFlight(ctx context.Context, f models.Flight) (models.Flight, error) {
	if err := validateSchedule(f); err != nil {
		return models.Flight{}, fmt.Errorf("update flight %s: %w", f.Code, err)
	}

	unlock, err := s.mu.lock(ctx, "update flight")
	if err != nil {
		return models.Flight{}, err
	}
	defer unlock()

	current, ok := s.flights[models.CodeKey(f.Code)]
	if !ok {
		return models.Flight{}, fmt.Errorf("update flight %s: %w", f.Code, ErrUnknownFlight)
	}
	held := s.heldSeats(current.Code)
	for _, class := range []models.SeatClass{models.SeatClassExecutive, models.SeatClassEconomy, models.SeatClassBusiness} {
		if f.Seats.ForClass(class) < held[class] {
			return models.Flight{}, fmt.Errorf("update flight %s: %s has %d held seats: %w",
				f.Code, class, held[class], ErrCapacityBelowBooked)
		}
	}

	updated := *current
	updated.Name = f.Name
	updated.Origin = f.Origin
	updated.Destination = f.Destination
	updated.Departure = f.Departure
	updated.Arrival = f.Arrival
	updated.Seats = f.Seats
	if err := s.repo.UpdateFlight(ctx, &updated); err != nil {
		return models.Flight{}, persistErr("update flight", err)
	}

	*current = updated
	return updated, nil
}

// DeleteFlight removes a flight that no reservation references, in any status.
func (s *Store) DeleteFlight(ctx context.Context, code string) error {
	unlock, err := s.mu.lock(ctx, "delete flight")
	if err != nil {
		return err
	}
	defer unlock()

	key := models.CodeKey(code)
	f, ok := s.flights[key]
	if !ok {
		return fmt.Errorf("delete flight %s: %w", code, ErrUnknownFlight)
	}
	for _, r := range s.reservations {
		if models.CodeKey(r.FlightCode) == key {
			return fmt.Errorf("delete flight %s: %w", code, ErrFlightInUse)
		}
	}
	if err := s.repo.DeleteFlight(ctx, f.Code); err != nil {
		return persistErr("delete flight", err)
	}

	delete(s.flights, key)
	for i, k := range s.flightOrder {
		if k == key {
			s.flightOrder = append(s.flightOrder[:i], s.flightOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AvailableSeats is total capacity minus the seats held by confirmed and
// waiting reservations. It is computed on every call.
func (s *Store) AvailableSeats(ctx context.Context, code string) (int, error) {
	occ, err := s.Occupancy(ctx, code)
	if err != nil {
		return 0, err
	}
	return occ.AvailableSeats, nil
}

// Occupancy reports capacity and held seats of a flight from one consistent
// read.
func (s *Store) Occupancy(ctx context.Context, code string) (models.FlightOccupancy, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.FlightOccupancy{}, err
	}
	defer unlock()

	f, ok := s.flights[models.CodeKey(code)]
	if !ok {
		return models.FlightOccupancy{}, fmt.Errorf("available seats %s: %w", code, ErrUnknownFlight)
	}
	occ := models.FlightOccupancy{FlightCode: f.Code, Capacity: f.TotalCapacity()}
	for _, n := range s.heldSeats(f.Code) {
		occ.Booked += n
	}
	occ.AvailableSeats = occ.Capacity - occ.Booked
	occ.Occupancy = percent(float64(occ.Booked), float64(occ.Capacity))
	return occ, nil
}

// SetFares replaces the fares of a flight
func (s *Store) SetFares(ctx context.Context, code string, fares models.Fares) (models.Flight, error) {
	if err := validateFares(fares); err != nil {
		return models.Flight{}, fmt.Errorf("set fares %s: %w", code, err)
	}

	unlock, err := s.mu.lock(ctx, "set fares")
	if err != nil {
		return models.Flight{}, err
	}
	defer unlock()

	current, ok := s.flights[models.CodeKey(code)]
	if !ok {
		return models.Flight{}, fmt.Errorf("set fares %s: %w", code, ErrUnknownFlight)
	}
	updated := *current
	updated.Fares = fares
	if err := s.repo.UpdateFlight(ctx, &updated); err != nil {
		return models.Flight{}, persistErr("set fares", err)
	}

	*current = updated
	return updated, nil
}

// AdjustFares multiplies the fares of every priced flight by multiplier,
// e.g. 0.9 for a 10% discount or 1.15 for a 15% premium. Results are rounded
// to cents. Flights without fares are skipped.
func (s *Store) AdjustFares(ctx context.Context, multiplier float64) ([]models.Flight, error) {
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return nil, fmt.Errorf("adjust fares by %v: %w", multiplier, ErrInvalidMultiplier)
	}

	unlock, err := s.mu.lock(ctx, "adjust fares")
	if err != nil {
		return nil, err
	}
	defer unlock()

	adjusted := make([]models.Flight, 0, len(s.flightOrder))
	for _, key := range s.flightOrder {
		f := *s.flights[key]
		if f.Fares == (models.Fares{}) {
			continue
		}
		f.Fares = roundFares(f.Fares.Scale(multiplier))
		if err := s.repo.UpdateFlight(ctx, &f); err != nil {
			return nil, persistErr("adjust fares", err)
		}
		adjusted = append(adjusted, f)
	}

	for _, f := range adjusted {
		s.flights[models.CodeKey(f.Code)].Fares = f.Fares
	}
	return adjusted, nil
}

// heldSeats counts seats per class held on a flight. Caller holds the lock.
func (s *Store) heldSeats(code string) map[models.SeatClass]int {
	key := models.CodeKey(code)
	held := make(map[models.SeatClass]int, 3)
	for _, r := range s.reservations {
		if r.Status.HoldsSeat() && models.CodeKey(r.FlightCode) == key {
			held[r.SeatClass]++
		}
	}
	return held
}

func validateFlight(f models.Flight) error {
	if f.Code == "" {
		return fmt.Errorf("code is required: %w", ErrInvalidFlight)
	}
	if err := validateSchedule(f); err != nil {
		return err
	}
	if f.Fares != (models.Fares{}) {
		return validateFares(f.Fares)
	}
	return nil
}

func validateSchedule(f models.Flight) error {
	if f.Seats.Executive < 0 || f.Seats.Economy < 0 || f.Seats.Business < 0 {
		return ErrNegativeCapacity
	}
	if !f.Departure.IsZero() && !f.Arrival.IsZero() && f.Arrival.Before(f.Departure) {
		return fmt.Errorf("arrival before departure: %w", ErrInvalidFlight)
	}
	return nil
}

func validateFares(f models.Fares) error {
	if f.Executive <= 0 || f.Economy <= 0 || f.Business <= 0 {
		return ErrInvalidFare
	}
	if f.Economy >= f.Executive || f.Business <= f.Executive {
		return ErrInvalidFareOrder
	}
	return nil
}

func roundFares(f models.Fares) models.Fares {
	round := func(v float64) float64 { return math.Round(v*100) / 100 }
	return models.Fares{
		Executive: round(f.Executive),
		Economy:   round(f.Economy),
		Business:  round(f.Business),
	}
}
