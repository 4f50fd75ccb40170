package reservation

import (
	"context"
	"fmt"
	"sort"

	"airline-reservation/internal/models"
)

// ReservationRequest carries the fields of a new booking
type ReservationRequest struct {
	FlightCode string
	CustomerID int64
	SeatClass  models.SeatClass
	SeatNumber int
	TravelDate models.Date
	Fare       float64
	// Waitlist books the seat with status WAITING instead of CONFIRMED.
	Waitlist bool
}

// transitions is the reservation lifecycle graph
var transitions = map[models.ReservationStatus][]models.ReservationStatus{
	models.ReservationStatusConfirmed: {models.ReservationStatusCancelled},
	models.ReservationStatusWaiting:   {models.ReservationStatusCancelled},
	models.ReservationStatusCancelled: {models.ReservationStatusRefunded},
}

// CanTransition reports whether a reservation may move from one status to another
func CanTransition(from, to models.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateReservation books a seat and returns the new reservation id. The
// flight and customer must exist and the travel date may not be before today.
// Seats are not decremented anywhere; availability is derived on read.
func (s *Store) CreateReservation(ctx context.Context, req ReservationRequest) (int64, error) {
	unlock, err := s.mu.lock(ctx, "create reservation")
	if err != nil {
		return 0, err
	}
	defer unlock()

	flight, ok := s.flights[models.CodeKey(req.FlightCode)]
	if !ok {
		return 0, fmt.Errorf("create reservation on %s: %w", req.FlightCode, ErrUnknownFlight)
	}
	if _, ok := s.customers[req.CustomerID]; !ok {
		return 0, fmt.Errorf("create reservation for customer %d: %w", req.CustomerID, ErrUnknownCustomer)
	}
	if req.TravelDate.Time().Before(s.today()) {
		return 0, fmt.Errorf("create reservation for %s: %w", req.TravelDate, ErrInvalidTravelDate)
	}
	if req.Fare < 0 {
		return 0, fmt.Errorf("create reservation: %w", ErrNegativeFare)
	}
	if !req.SeatClass.Valid() {
		return 0, fmt.Errorf("create reservation: seat class %q: %w", req.SeatClass, ErrInvalidSeat)
	}

	tier := flight.Seats.ForClass(req.SeatClass)
	if req.SeatNumber < 1 || req.SeatNumber > tier {
		return 0, fmt.Errorf("create reservation: seat %d outside 1..%d in %s: %w",
			req.SeatNumber, tier, req.SeatClass, ErrInvalidSeat)
	}
	if s.heldSeats(flight.Code)[req.SeatClass] >= tier {
		return 0, fmt.Errorf("create reservation on %s %s: %w", flight.Code, req.SeatClass, ErrFlightFull)
	}
	for _, r := range s.reservations {
		if r.Status.HoldsSeat() && r.FlightCode == flight.Code &&
			r.SeatClass == req.SeatClass && r.SeatNumber == req.SeatNumber {
			return 0, fmt.Errorf("create reservation: seat %s-%d on %s: %w",
				req.SeatClass, req.SeatNumber, flight.Code, ErrSeatTaken)
		}
	}

	status := models.ReservationStatusConfirmed
	if req.Waitlist {
		status = models.ReservationStatusWaiting
	}
	now := s.now()
	r := models.Reservation{
		ID:         s.nextReservationID,
		FlightCode: flight.Code,
		CustomerID: req.CustomerID,
		SeatClass:  req.SeatClass,
		SeatNumber: req.SeatNumber,
		TravelDate: req.TravelDate,
		Status:     status,
		Fare:       req.Fare,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateReservation(ctx, &r); err != nil {
		return 0, persistErr("create reservation", err)
	}

	s.reservations[r.ID] = &r
	s.nextReservationID++
	return r.ID, nil
}

// GetReservation returns a reservation by id
func (s *Store) GetReservation(ctx context.Context, id int64) (models.Reservation, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.Reservation{}, err
	}
	defer unlock()

	r, ok := s.reservations[id]
	if !ok {
		return models.Reservation{}, fmt.Errorf("reservation %d: %w", id, ErrUnknownReservation)
	}
	return *r, nil
}

// ListReservations returns reservations ordered by id. An empty status
// returns all of them.
func (s *Store) ListReservations(ctx context.Context, status models.ReservationStatus) ([]models.Reservation, error) {
	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.filterReservations(func(r *models.Reservation) bool {
		return status == "" || r.Status == status
	}), nil
}

// CancelReservation moves a confirmed or waiting reservation to CANCELLED.
func (s *Store) CancelReservation(ctx context.Context, id int64) (models.Reservation, error) {
	unlock, err := s.mu.lock(ctx, "cancel reservation")
	if err != nil {
		return models.Reservation{}, err
	}
	defer unlock()

	r, ok := s.reservations[id]
	if !ok {
		return models.Reservation{}, fmt.Errorf("cancel reservation %d: %w", id, ErrUnknownReservation)
	}
	if r.Status == models.ReservationStatusCancelled || r.Status == models.ReservationStatusRefunded {
		return models.Reservation{}, fmt.Errorf("cancel reservation %d: %w", id, ErrAlreadyCancelled)
	}

	updated, err := s.transition(ctx, r, models.ReservationStatusCancelled)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("cancel reservation %d: %w", id, err)
	}
	return updated, nil
}

// transition persists and applies a status change. Caller holds the lock.
func (s *Store) transition(ctx context.Context, r *models.Reservation, to models.ReservationStatus) (models.Reservation, error) {
	updated, err := s.advance(r, to)
	if err != nil {
		return models.Reservation{}, err
	}
	if err := s.repo.UpdateReservation(ctx, &updated); err != nil {
		return models.Reservation{}, persistErr("update reservation", err)
	}
	*r = updated
	return updated, nil
}

// advance returns r moved to status to without writing it anywhere.
func (s *Store) advance(r *models.Reservation, to models.ReservationStatus) (models.Reservation, error) {
	if !CanTransition(r.Status, to) {
		return models.Reservation{}, fmt.Errorf("%s -> %s: %w", r.Status, to, ErrInvalidStatusTransition)
	}
	updated := *r
	updated.Status = to
	updated.UpdatedAt = s.now()
	return updated, nil
}

// filterReservations returns copies of matching reservations ordered by id.
// Caller holds the lock.
func (s *Store) filterReservations(keep func(*models.Reservation) bool) []models.Reservation {
	out := make([]models.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
