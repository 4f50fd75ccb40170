package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/redisclient"
	"airline-reservation/internal/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *fakePublisher) record(eventType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func (p *fakePublisher) PublishReservationCreated(_ context.Context, e *models.ReservationCreatedEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishReservationCancelled(_ context.Context, e *models.ReservationCancelledEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishRefund(_ context.Context, e *models.RefundEvent) error {
	return p.record(e.EventType)
}

func (p *fakePublisher) PublishFlight(_ context.Context, e *models.FlightEvent) error {
	return p.record(e.EventType)
}

type fakeIdempotency struct {
	mu       sync.Mutex
	values   map[string]string
	claimErr error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{values: make(map[string]string)}
}

func (f *fakeIdempotency) ClaimIdempotencyKey(_ context.Context, key string, _ time.Duration) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, "", f.claimErr
	}
	if v, ok := f.values[key]; ok {
		return false, v, nil
	}
	f.values[key] = redisclient.PendingMarker
	return true, "", nil
}

func (f *fakeIdempotency) CompleteIdempotencyKey(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeIdempotency) ReleaseIdempotencyKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[key] == redisclient.PendingMarker {
		delete(f.values, key)
	}
	return nil
}

func newTestStore() *reservation.Store {
	return reservation.NewStore(reservation.WithClock(func() time.Time { return testNow }))
}

func seededStore(t *testing.T) *reservation.Store {
	t.Helper()
	s := newTestStore()
	seeded, err := SeedSampleData(context.Background(), s, testNow)
	require.NoError(t, err)
	require.True(t, seeded)
	return s
}

func bookingRequest(seat int) *BookingRequest {
	return &BookingRequest{
		FlightCode: "AI101",
		CustomerID: 1,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: seat,
		TravelDate: models.DateOf(testNow).AddDays(1),
	}
}

func TestBookReservationQuotesFareAndPublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewBookingService(seededStore(t), pub, nil, time.Minute)

	resp, err := svc.BookReservation(context.Background(), bookingRequest(5))
	require.NoError(t, err)
	assert.False(t, resp.Replayed)
	assert.Equal(t, 4500.0, resp.Reservation.Fare, "fare comes from the flight when omitted")
	assert.Equal(t, models.ReservationStatusConfirmed, resp.Reservation.Status)
	assert.Equal(t, []string{models.EventTypeReservationCreated}, pub.events)

	fare := 1999.0
	req := bookingRequest(6)
	req.Fare = &fare
	resp, err = svc.BookReservation(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1999.0, resp.Reservation.Fare)
}

func TestBookReservationSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewBookingService(seededStore(t), pub, nil, time.Minute)

	_, err := svc.BookReservation(context.Background(), bookingRequest(5))
	assert.NoError(t, err)
}

func TestBookReservationRejectsUnknownFlight(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewBookingService(seededStore(t), pub, nil, time.Minute)

	req := bookingRequest(1)
	req.FlightCode = "ZZ999"
	_, err := svc.BookReservation(context.Background(), req)
	assert.ErrorIs(t, err, reservation.ErrUnknownFlight)
	assert.Empty(t, pub.events)
}

func TestBookReservationIdempotentReplay(t *testing.T) {
	idem := newFakeIdempotency()
	svc := NewBookingService(seededStore(t), nil, idem, time.Minute)
	ctx := context.Background()

	req := bookingRequest(5)
	req.IdempotencyKey = "key-1"
	first, err := svc.BookReservation(ctx, req)
	require.NoError(t, err)

	second, err := svc.BookReservation(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Reservation.ID, second.Reservation.ID)

	all, err := svc.ListReservations(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBookReservationReleasesKeyOnFailure(t *testing.T) {
	idem := newFakeIdempotency()
	svc := NewBookingService(seededStore(t), nil, idem, time.Minute)
	ctx := context.Background()

	req := bookingRequest(500)
	req.IdempotencyKey = "key-2"
	_, err := svc.BookReservation(ctx, req)
	assert.ErrorIs(t, err, reservation.ErrInvalidSeat)

	req.SeatNumber = 5
	resp, err := svc.BookReservation(ctx, req)
	require.NoError(t, err, "a failed attempt must not poison the key")
	assert.False(t, resp.Replayed)
}

func TestBookReservationInFlightKey(t *testing.T) {
	idem := newFakeIdempotency()
	idem.values["key-3"] = redisclient.PendingMarker
	svc := NewBookingService(seededStore(t), nil, idem, time.Minute)

	req := bookingRequest(5)
	req.IdempotencyKey = "key-3"
	_, err := svc.BookReservation(context.Background(), req)
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.True(t, reservation.IsKind(err, reservation.KindConflict))
}

func TestBookReservationWithoutRedis(t *testing.T) {
	idem := newFakeIdempotency()
	idem.claimErr = errors.New("connection refused")
	svc := NewBookingService(seededStore(t), nil, idem, time.Minute)

	req := bookingRequest(5)
	req.IdempotencyKey = "key-4"
	resp, err := svc.BookReservation(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Reservation.ID)
}

func TestCancelReservationPublishes(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewBookingService(seededStore(t), pub, nil, time.Minute)
	ctx := context.Background()

	resp, err := svc.BookReservation(ctx, bookingRequest(5))
	require.NoError(t, err)

	r, err := svc.CancelReservation(ctx, resp.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, r.Status)

	_, err = svc.CancelReservation(ctx, resp.Reservation.ID)
	assert.ErrorIs(t, err, reservation.ErrAlreadyCancelled)

	assert.Equal(t, []string{models.EventTypeReservationCreated, models.EventTypeReservationCancelled}, pub.events)
}

func TestAvailability(t *testing.T) {
	svc := NewBookingService(seededStore(t), nil, nil, time.Minute)
	ctx := context.Background()

	_, err := svc.BookReservation(ctx, bookingRequest(5))
	require.NoError(t, err)

	a, err := svc.Availability(ctx, "ai101")
	require.NoError(t, err)
	assert.Equal(t, FlightAvailability{FlightCode: "AI101", Capacity: 170, Booked: 1, Available: 169}, a)

	_, err = svc.Availability(ctx, "nope")
	assert.ErrorIs(t, err, reservation.ErrUnknownFlight)
}

func TestCustomerAndFlightManagement(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewBookingService(newTestStore(), pub, nil, time.Minute)
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, models.Customer{Name: "Lerato Lesholu"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	f, err := svc.CreateFlight(ctx, models.Flight{Code: "AI101", Origin: "Delhi", Destination: "Mumbai",
		Seats: models.SeatInventory{Executive: 20, Economy: 100}})
	require.NoError(t, err)
	assert.Equal(t, 120, f.TotalCapacity())
	assert.Equal(t, []string{models.EventTypeFlightCreated}, pub.events)

	found, err := svc.SearchFlights(ctx, "DELHI", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, svc.DeleteFlight(ctx, "AI101"))
	require.NoError(t, svc.DeleteCustomer(ctx, c.ID))

	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestAvailabilityConsistentDuringCapacityChange(t *testing.T) {
	store := seededStore(t)
	svc := NewBookingService(store, nil, nil, time.Minute)
	ctx := context.Background()

	_, err := svc.BookReservation(ctx, bookingRequest(5))
	require.NoError(t, err)
	flight, err := store.GetFlight(ctx, "AI101")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			f := flight
			if i%2 == 0 {
				f.Seats = models.SeatInventory{Executive: 0, Economy: 10}
			}
			if _, err := store.UpdateFlight(ctx, f); err != nil && !errors.Is(err, reservation.ErrStoreBusy) {
				t.Error(err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		a, err := svc.Availability(ctx, "AI101")
		if errors.Is(err, reservation.ErrStoreBusy) {
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, 1, a.Booked)
		assert.Equal(t, a.Capacity-a.Booked, a.Available)
	}
	wg.Wait()
}
