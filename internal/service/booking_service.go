package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/redisclient"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/util"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// BookingService handles customers, flights and reservations
type BookingService struct {
	store          *reservation.Store
	eventPublisher EventPublisher
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewBookingService creates a new booking service. publisher and idempotency
// may be nil when Kafka or Redis are not configured.
func NewBookingService(
	store *reservation.Store,
	publisher EventPublisher,
	idempotency IdempotencyStore,
	idempotencyTTL time.Duration,
) *BookingService {
	return &BookingService{
		store:          store,
		eventPublisher: publisherOrNoop(publisher),
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
	}
}

// BookingRequest represents a request to book a seat
type BookingRequest struct {
	FlightCode string           `json:"flight_code" binding:"required"`
	CustomerID int64            `json:"customer_id" binding:"required"`
	SeatClass  models.SeatClass `json:"seat_class" binding:"required,seatclass"`
	SeatNumber int              `json:"seat_number" binding:"required,min=1"`
	TravelDate models.Date      `json:"travel_date"`
	// Fare defaults to the flight's fare for the seat class when omitted.
	Fare           *float64 `json:"fare,omitempty"`
	Waitlist       bool     `json:"waitlist"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}

// BookingResponse represents the response after booking
type BookingResponse struct {
	Reservation models.Reservation `json:"reservation"`
	// Replayed is set when the reservation was created by an earlier request
	// with the same idempotency key.
	Replayed bool `json:"replayed"`
}

// FlightAvailability summarizes seat usage of one flight
type FlightAvailability struct {
	FlightCode string `json:"flight_code"`
	Capacity   int    `json:"capacity"`
	Booked     int    `json:"booked"`
	Available  int    `json:"available"`
}

// BookReservation creates a reservation. With an idempotency key and Redis
// configured, a retried request returns the reservation of the first one.
func (s *BookingService) BookReservation(ctx context.Context, req *BookingRequest) (*BookingResponse, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.BookReservation")
	defer span.End()

	claimed := false
	if req.IdempotencyKey != "" && s.idempotency != nil {
		ok, existing, err := s.idempotency.ClaimIdempotencyKey(ctx, req.IdempotencyKey, s.idempotencyTTL)
		switch {
		case err != nil:
			s.logger.Warn("Idempotency check unavailable, booking without it",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err))
		case !ok:
			return s.replay(ctx, req.IdempotencyKey, existing)
		default:
			claimed = true
		}
	}

	resp, err := s.book(ctx, span, req)
	if claimed {
		if err != nil {
			if relErr := s.idempotency.ReleaseIdempotencyKey(ctx, req.IdempotencyKey); relErr != nil {
				s.logger.Error("Failed to release idempotency key", zap.Error(relErr))
			}
		} else {
			value := strconv.FormatInt(resp.Reservation.ID, 10)
			if cErr := s.idempotency.CompleteIdempotencyKey(ctx, req.IdempotencyKey, value, s.idempotencyTTL); cErr != nil {
				s.logger.Error("Failed to store idempotency result", zap.Error(cErr))
			}
		}
	}
	return resp, err
}

func (s *BookingService) replay(ctx context.Context, key, existing string) (*BookingResponse, error) {
	if existing == redisclient.PendingMarker {
		return nil, fmt.Errorf("book reservation %s: %w", key, ErrRequestInFlight)
	}
	id, err := strconv.ParseInt(existing, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored reservation id %q: %w", existing, err)
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	util.IdempotentReplaysTotal.Inc()
	s.logger.Info("Duplicate booking request detected",
		zap.String("idempotency_key", key),
		zap.Int64("reservation_id", id))
	return &BookingResponse{Reservation: r, Replayed: true}, nil
}

func (s *BookingService) book(ctx context.Context, span trace.Span, req *BookingRequest) (*BookingResponse, error) {
	start := time.Now()

	fare := 0.0
	if req.Fare != nil {
		fare = *req.Fare
	} else if f, err := s.store.GetFlight(ctx, req.FlightCode); err == nil {
		fare = f.Fares.For(req.SeatClass)
	}

	id, err := s.store.CreateReservation(ctx, reservation.ReservationRequest{
		FlightCode: req.FlightCode,
		CustomerID: req.CustomerID,
		SeatClass:  req.SeatClass,
		SeatNumber: req.SeatNumber,
		TravelDate: req.TravelDate,
		Fare:       fare,
		Waitlist:   req.Waitlist,
	})
	observe(span, "create_reservation", start, err)
	if err != nil {
		util.ReservationsFailedTotal.WithLabelValues(string(reservation.KindOf(err))).Inc()
		s.logger.Info("Reservation rejected",
			zap.String("flight_code", req.FlightCode),
			zap.Int64("customer_id", req.CustomerID),
			zap.Error(err))
		return nil, err
	}

	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	util.ReservationsCreatedTotal.WithLabelValues(string(r.SeatClass), string(r.Status)).Inc()
	s.logger.Info("Reservation created",
		zap.Int64("reservation_id", r.ID),
		zap.String("flight_code", r.FlightCode),
		zap.String("status", string(r.Status)))

	event := &models.ReservationCreatedEvent{
		BaseEvent:     models.NewBaseEvent(models.EventTypeReservationCreated),
		ReservationID: r.ID,
		FlightCode:    r.FlightCode,
		CustomerID:    r.CustomerID,
		SeatClass:     r.SeatClass,
		Status:        r.Status,
		Fare:          r.Fare,
	}
	if err := s.eventPublisher.PublishReservationCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationCreated event", zap.Error(err))
	}

	return &BookingResponse{Reservation: r}, nil
}

// CancelReservation cancels a reservation and releases its seat
func (s *BookingService) CancelReservation(ctx context.Context, id int64) (models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelReservation")
	defer span.End()

	start := time.Now()
	r, err := s.store.CancelReservation(ctx, id)
	observe(span, "cancel_reservation", start, err)
	if err != nil {
		return models.Reservation{}, err
	}

	util.ReservationsCancelledTotal.Inc()
	s.logger.Info("Reservation cancelled", zap.Int64("reservation_id", id))

	event := &models.ReservationCancelledEvent{
		BaseEvent:     models.NewBaseEvent(models.EventTypeReservationCancelled),
		ReservationID: r.ID,
		FlightCode:    r.FlightCode,
		Fare:          r.Fare,
	}
	if err := s.eventPublisher.PublishReservationCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReservationCancelled event", zap.Error(err))
	}
	return r, nil
}

// GetReservation retrieves a reservation by ID
func (s *BookingService) GetReservation(ctx context.Context, id int64) (models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

// ListReservations lists reservations, optionally filtered by status
func (s *BookingService) ListReservations(ctx context.Context, status models.ReservationStatus) ([]models.Reservation, error) {
	return s.store.ListReservations(ctx, status)
}

// CreateCustomer registers a customer and returns it with its new id
func (s *BookingService) CreateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateCustomer")
	defer span.End()

	start := time.Now()
	id, err := s.store.CreateCustomer(ctx, c)
	observe(span, "create_customer", start, err)
	if err != nil {
		return models.Customer{}, err
	}

	s.logger.Info("Customer created", zap.Int64("customer_id", id))
	c.ID = id
	return c, nil
}

// GetCustomer retrieves a customer by ID
func (s *BookingService) GetCustomer(ctx context.Context, id int64) (models.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// ListCustomers lists all customers
func (s *BookingService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

// UpdateCustomer replaces a customer's profile
func (s *BookingService) UpdateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	start := time.Now()
	updated, err := s.store.UpdateCustomer(ctx, c)
	observe(nil, "update_customer", start, err)
	return updated, err
}

// DeleteCustomer removes a customer without reservations
func (s *BookingService) DeleteCustomer(ctx context.Context, id int64) error {
	start := time.Now()
	err := s.store.DeleteCustomer(ctx, id)
	observe(nil, "delete_customer", start, err)
	if err == nil {
		s.logger.Info("Customer deleted", zap.Int64("customer_id", id))
	}
	return err
}

// CustomerReservations lists the reservations of one customer
func (s *BookingService) CustomerReservations(ctx context.Context, id int64) ([]models.Reservation, error) {
	return s.store.ReservationsByCustomer(ctx, id)
}

// CreateFlight schedules a flight
func (s *BookingService) CreateFlight(ctx context.Context, f models.Flight) (models.Flight, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateFlight")
	defer span.End()

	start := time.Now()
	created, err := s.store.CreateFlight(ctx, f)
	observe(span, "create_flight", start, err)
	if err != nil {
		return models.Flight{}, err
	}

	s.logger.Info("Flight created",
		zap.String("flight_code", created.Code),
		zap.Int("capacity", created.TotalCapacity()))

	event := &models.FlightEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeFlightCreated),
		FlightCode: created.Code,
		Fares:      created.Fares,
	}
	if err := s.eventPublisher.PublishFlight(ctx, event); err != nil {
		s.logger.Error("Failed to publish FlightCreated event", zap.Error(err))
	}
	return created, nil
}

// GetFlight retrieves a flight by code
func (s *BookingService) GetFlight(ctx context.Context, code string) (models.Flight, error) {
	return s.store.GetFlight(ctx, code)
}

// ListFlights lists all flights
func (s *BookingService) ListFlights(ctx context.Context) ([]models.Flight, error) {
	return s.store.ListFlights(ctx)
}

// SearchFlights finds flights by route
func (s *BookingService) SearchFlights(ctx context.Context, origin, destination string) ([]models.Flight, error) {
	return s.store.SearchFlights(ctx, origin, destination)
}

// UpdateFlight changes a flight's schedule and seat inventory
func (s *BookingService) UpdateFlight(ctx context.Context, f models.Flight) (models.Flight, error) {
	start := time.Now()
	updated, err := s.store.UpdateFlight(ctx, f)
	observe(nil, "update_flight", start, err)
	return updated, err
}

// DeleteFlight removes a flight without reservations
func (s *BookingService) DeleteFlight(ctx context.Context, code string) error {
	start := time.Now()
	err := s.store.DeleteFlight(ctx, code)
	observe(nil, "delete_flight", start, err)
	if err == nil {
		s.logger.Info("Flight deleted", zap.String("flight_code", code))
	}
	return err
}

// Availability reports capacity and free seats of a flight
func (s *BookingService) Availability(ctx context.Context, code string) (FlightAvailability, error) {
	occ, err := s.store.Occupancy(ctx, code)
	if err != nil {
		return FlightAvailability{}, err
	}
	return FlightAvailability{
		FlightCode: occ.FlightCode,
		Capacity:   occ.Capacity,
		Booked:     occ.Booked,
		Available:  occ.AvailableSeats,
	}, nil
}
