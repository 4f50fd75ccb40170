package reservation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"airline-reservation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(opts...)
}

func tomorrow() models.Date {
	return models.DateOf(fixedNow).AddDays(1)
}

func seedFlight(t *testing.T, s *Store, code string, executive, economy int) models.Flight {
	t.Helper()
	f, err := s.CreateFlight(context.Background(), models.Flight{
		Code:        code,
		Name:        "Air India",
		Origin:      "Delhi",
		Destination: "Mumbai",
		Seats:       models.SeatInventory{Executive: executive, Economy: economy},
	})
	require.NoError(t, err)
	return f
}

func seedCustomer(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.CreateCustomer(context.Background(), models.Customer{Name: name})
	require.NoError(t, err)
	return id
}

func book(t *testing.T, s *Store, code string, customerID int64, seat int) int64 {
	t.Helper()
	id, err := s.CreateReservation(context.Background(), ReservationRequest{
		FlightCode: code,
		CustomerID: customerID,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: seat,
		TravelDate: tomorrow(),
		Fare:       2000,
	})
	require.NoError(t, err)
	return id
}

func TestReservationLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedFlight(t, s, "AI101", 20, 100)
	avail, err := s.AvailableSeats(ctx, "AI101")
	require.NoError(t, err)
	assert.Equal(t, 120, avail)

	custID := seedCustomer(t, s, "Lerato Lesholu")
	assert.Equal(t, int64(1), custID)

	resID, err := s.CreateReservation(ctx, ReservationRequest{
		FlightCode: "AI101",
		CustomerID: custID,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: 5,
		TravelDate: tomorrow(),
		Fare:       2000,
	})
	require.NoError(t, err)

	res, err := s.GetReservation(ctx, resID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, res.Status)

	avail, err = s.AvailableSeats(ctx, "AI101")
	require.NoError(t, err)
	assert.Equal(t, 119, avail)

	cancelled, err := s.CancelReservation(ctx, resID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	avail, err = s.AvailableSeats(ctx, "AI101")
	require.NoError(t, err)
	assert.Equal(t, 120, avail)

	refund, err := s.ProcessRefund(ctx, RefundRequest{
		ReservationID: resID,
		Amount:        1600,
		Reason:        models.RefundReasonCustomerRequest,
		Percentage:    80,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusProcessed, refund.Status)
	assert.NotNil(t, refund.ProcessedAt)

	res, err = s.GetReservation(ctx, resID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusRefunded, res.Status)
}

func TestCustomerIDsStrictlyIncreasing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var last int64
	for i := 0; i < 5; i++ {
		id := seedCustomer(t, s, "customer")
		assert.Greater(t, id, last)
		last = id
	}

	require.NoError(t, s.DeleteCustomer(ctx, last))
	id := seedCustomer(t, s, "after delete")
	assert.Equal(t, last+1, id, "ids are never reused")

	_, err := s.CreateCustomer(ctx, models.Customer{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidCustomer)
}

func TestCreateFlightDuplicateCodeIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)

	_, err := s.CreateFlight(ctx, models.Flight{Code: "ai101", Seats: models.SeatInventory{Economy: 10}})
	assert.ErrorIs(t, err, ErrDuplicateFlightCode)
	assert.True(t, IsKind(err, KindConflict))

	f, err := s.GetFlight(ctx, "Ai101")
	require.NoError(t, err)
	assert.Equal(t, "AI101", f.Code)
}

func TestCreateFlightValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name   string
		flight models.Flight
		want   error
	}{
		{"missing code", models.Flight{Seats: models.SeatInventory{Economy: 1}}, ErrInvalidFlight},
		{"negative capacity", models.Flight{Code: "X1", Seats: models.SeatInventory{Economy: -1}}, ErrNegativeCapacity},
		{
			"arrival before departure",
			models.Flight{Code: "X2", Departure: fixedNow.Add(2 * time.Hour), Arrival: fixedNow},
			ErrInvalidFlight,
		},
		{
			"fare order",
			models.Flight{Code: "X3", Fares: models.Fares{Executive: 100, Economy: 200, Business: 300}},
			ErrInvalidFareOrder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateFlight(ctx, tt.flight)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsKind(err, KindValidation))
		})
	}

	flights, err := s.ListFlights(ctx)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestCreateReservationUnknownFlightDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	custID := seedCustomer(t, s, "Thato Mphama")

	before, err := s.Statistics(ctx)
	require.NoError(t, err)

	_, err = s.CreateReservation(ctx, ReservationRequest{
		FlightCode: "ZZ999",
		CustomerID: custID,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: 1,
		TravelDate: tomorrow(),
		Fare:       100,
	})
	assert.ErrorIs(t, err, ErrUnknownFlight)
	assert.Equal(t, KindNotFound, KindOf(err))

	after, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	id := book(t, s, "AI101", custID, 1)
	assert.Equal(t, int64(1), id, "failed create must not consume an id")
}

func TestCreateReservationRejections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "SG201", 1, 2)
	custID := seedCustomer(t, s, "Katleho Rothi")
	book(t, s, "SG201", custID, 1)

	base := ReservationRequest{
		FlightCode: "SG201",
		CustomerID: custID,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: 2,
		TravelDate: tomorrow(),
		Fare:       100,
	}

	tests := []struct {
		name   string
		mutate func(*ReservationRequest)
		want   error
	}{
		{"unknown customer", func(r *ReservationRequest) { r.CustomerID = 42 }, ErrUnknownCustomer},
		{"past travel date", func(r *ReservationRequest) { r.TravelDate = models.DateOf(fixedNow).AddDays(-1) }, ErrInvalidTravelDate},
		{"negative fare", func(r *ReservationRequest) { r.Fare = -1 }, ErrNegativeFare},
		{"unknown seat class", func(r *ReservationRequest) { r.SeatClass = "FIRST" }, ErrInvalidSeat},
		{"seat out of range", func(r *ReservationRequest) { r.SeatNumber = 3 }, ErrInvalidSeat},
		{"seat taken", func(r *ReservationRequest) { r.SeatNumber = 1 }, ErrSeatTaken},
		{"empty tier", func(r *ReservationRequest) { r.SeatClass = models.SeatClassBusiness; r.SeatNumber = 1 }, ErrInvalidSeat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			_, err := s.CreateReservation(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// travelling today is allowed
	req := base
	req.TravelDate = models.DateOf(fixedNow)
	_, err := s.CreateReservation(ctx, req)
	require.NoError(t, err)

	req.SeatNumber = 1
	_, err = s.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, ErrFlightFull)
}

func TestWaitlistedReservationHoldsSeat(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI102", 0, 3)
	custID := seedCustomer(t, s, "waiter")

	id, err := s.CreateReservation(ctx, ReservationRequest{
		FlightCode: "ai102",
		CustomerID: custID,
		SeatClass:  models.SeatClassEconomy,
		SeatNumber: 3,
		TravelDate: tomorrow(),
		Waitlist:   true,
	})
	require.NoError(t, err)

	r, err := s.GetReservation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusWaiting, r.Status)
	assert.Equal(t, "AI102", r.FlightCode)

	avail, err := s.AvailableSeats(ctx, "AI102")
	require.NoError(t, err)
	assert.Equal(t, 2, avail)
}

func TestCancelTwiceFailsWithoutChange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	custID := seedCustomer(t, s, "c")
	id := book(t, s, "AI101", custID, 5)

	_, err := s.CancelReservation(ctx, id)
	require.NoError(t, err)

	before, err := s.GetReservation(ctx, id)
	require.NoError(t, err)
	beforeStats, err := s.Statistics(ctx)
	require.NoError(t, err)

	_, err = s.CancelReservation(ctx, id)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	after, err := s.GetReservation(ctx, id)
	require.NoError(t, err)
	afterStats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, beforeStats, afterStats)

	_, err = s.CancelReservation(ctx, 999)
	assert.ErrorIs(t, err, ErrUnknownReservation)
}

func TestCancelRefundedReservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	id := book(t, s, "AI101", seedCustomer(t, s, "c"), 5)

	_, err := s.CancelReservation(ctx, id)
	require.NoError(t, err)
	_, err = s.ProcessRefund(ctx, RefundRequest{ReservationID: id, Amount: 1600, Reason: models.RefundReasonOther, Percentage: 80})
	require.NoError(t, err)

	_, err = s.CancelReservation(ctx, id)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestRefundRequiresCancelledReservation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	id := book(t, s, "AI101", seedCustomer(t, s, "c"), 5)

	_, err := s.ProcessRefund(ctx, RefundRequest{
		ReservationID: id,
		Amount:        1600,
		Reason:        models.RefundReasonCustomerRequest,
		Percentage:    80,
	})
	assert.ErrorIs(t, err, ErrReservationNotCancelled)

	refunds, err := s.ListRefunds(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, refunds)

	_, err = s.ProcessRefund(ctx, RefundRequest{ReservationID: 77, Reason: models.RefundReasonOther})
	assert.ErrorIs(t, err, ErrUnknownReservation)
}

func TestRefundValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	id := book(t, s, "AI101", seedCustomer(t, s, "c"), 5)
	_, err := s.CancelReservation(ctx, id)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  RefundRequest
		want error
	}{
		{"percentage above range", RefundRequest{Amount: 100, Reason: models.RefundReasonOther, Percentage: 101}, ErrInvalidPercentage},
		{"percentage below range", RefundRequest{Amount: 100, Reason: models.RefundReasonOther, Percentage: -1}, ErrInvalidPercentage},
		{"unknown reason", RefundRequest{Amount: 100, Reason: "Bored", Percentage: 5}, ErrInvalidRefundReason},
		{"negative amount", RefundRequest{Amount: -5, Reason: models.RefundReasonOther, Percentage: 5}, ErrInvalidRefundAmount},
		{"amount above fare", RefundRequest{Amount: 2500, Reason: models.RefundReasonOther, Percentage: 100}, ErrInvalidRefundAmount},
		{"unknown status", RefundRequest{Amount: 1, Reason: models.RefundReasonOther, Status: "LOST"}, ErrInvalidRefundStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ReservationID = id
			_, err := s.ProcessRefund(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsKind(err, KindValidation))
		})
	}

	refunds, err := s.ListRefunds(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, refunds)
}

func TestPendingRefundSettlement(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	custID := seedCustomer(t, s, "c")
	first := book(t, s, "AI101", custID, 1)
	second := book(t, s, "AI101", custID, 2)
	for _, id := range []int64{first, second} {
		_, err := s.CancelReservation(ctx, id)
		require.NoError(t, err)
	}

	pending, err := s.ProcessRefund(ctx, RefundRequest{
		ReservationID: first,
		Amount:        1600,
		Reason:        models.RefundReasonScheduleChange,
		Percentage:    80,
		Status:        models.RefundStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusPending, pending.Status)
	assert.Nil(t, pending.ProcessedAt)

	_, err = s.ProcessRefund(ctx, RefundRequest{ReservationID: first, Amount: 10, Reason: models.RefundReasonOther})
	assert.ErrorIs(t, err, ErrRefundPending)

	res, err := s.GetReservation(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, res.Status)

	_, err = s.SettleRefund(ctx, pending.ID, models.RefundStatusPending)
	assert.ErrorIs(t, err, ErrInvalidRefundStatus)

	settled, err := s.SettleRefund(ctx, pending.ID, models.RefundStatusProcessed)
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusProcessed, settled.Status)

	res, err = s.GetReservation(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusRefunded, res.Status)

	_, err = s.SettleRefund(ctx, pending.ID, models.RefundStatusRejected)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	rejected, err := s.ProcessRefund(ctx, RefundRequest{
		ReservationID: second,
		Amount:        0,
		Reason:        models.RefundReasonDuplicateBooking,
		Status:        models.RefundStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusRejected, rejected.Status)

	res, err = s.GetReservation(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, res.Status, "rejected refund keeps reservation cancelled")

	_, err = s.SettleRefund(ctx, 404, models.RefundStatusProcessed)
	assert.ErrorIs(t, err, ErrUnknownRefund)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.ReservationStatusConfirmed, models.ReservationStatusCancelled))
	assert.True(t, CanTransition(models.ReservationStatusWaiting, models.ReservationStatusCancelled))
	assert.True(t, CanTransition(models.ReservationStatusCancelled, models.ReservationStatusRefunded))

	assert.False(t, CanTransition(models.ReservationStatusConfirmed, models.ReservationStatusRefunded))
	assert.False(t, CanTransition(models.ReservationStatusRefunded, models.ReservationStatusCancelled))
	assert.False(t, CanTransition(models.ReservationStatusCancelled, models.ReservationStatusConfirmed))
}

func TestAvailableSeatsStayWithinCapacity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "6E301", 3, 5)
	custID := seedCustomer(t, s, "c")
	capacity := 8

	rng := rand.New(rand.NewSource(7))
	var active []int64
	for i := 0; i < 200; i++ {
		if len(active) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(active))
			_, err := s.CancelReservation(ctx, active[idx])
			require.NoError(t, err)
			active = append(active[:idx], active[idx+1:]...)
		} else {
			class := models.SeatClassEconomy
			tier := 5
			if rng.Intn(2) == 0 {
				class, tier = models.SeatClassExecutive, 3
			}
			id, err := s.CreateReservation(ctx, ReservationRequest{
				FlightCode: "6E301",
				CustomerID: custID,
				SeatClass:  class,
				SeatNumber: rng.Intn(tier) + 1,
				TravelDate: tomorrow(),
				Fare:       10,
			})
			if err == nil {
				active = append(active, id)
			} else {
				assert.True(t, errors.Is(err, ErrSeatTaken) || errors.Is(err, ErrFlightFull), err)
			}
		}

		avail, err := s.AvailableSeats(ctx, "6E301")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, avail, 0)
		assert.LessOrEqual(t, avail, capacity)
		assert.Equal(t, capacity-len(active), avail)
	}

	_, err := s.AvailableSeats(ctx, "nope")
	assert.ErrorIs(t, err, ErrUnknownFlight)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	custID := seedCustomer(t, s, "c")

	ids := make([]int64, 0, 6)
	for seat := 1; seat <= 6; seat++ {
		ids = append(ids, book(t, s, "AI101", custID, seat))
	}
	for _, id := range ids[:3] {
		_, err := s.CancelReservation(ctx, id)
		require.NoError(t, err)
	}
	_, err := s.ProcessRefund(ctx, RefundRequest{ReservationID: ids[0], Amount: 1600, Reason: models.RefundReasonOther, Percentage: 80})
	require.NoError(t, err)
	_, err = s.ProcessRefund(ctx, RefundRequest{
		ReservationID: ids[1], Amount: 1000, Reason: models.RefundReasonOther, Percentage: 50,
		Status: models.RefundStatusPending,
	})
	require.NoError(t, err)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalReservations)
	sum := 0
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, stats.TotalReservations, sum)
	assert.Equal(t, 3, stats.ByStatus[models.ReservationStatusConfirmed])
	assert.Equal(t, 2, stats.ByStatus[models.ReservationStatusCancelled])
	assert.Equal(t, 1, stats.ByStatus[models.ReservationStatusRefunded])
	assert.Equal(t, 0, stats.ByStatus[models.ReservationStatusWaiting])
	assert.InDelta(t, 6000, stats.ConfirmedRevenue, 0.001)
	assert.InDelta(t, 1600, stats.RefundedAmount, 0.001)
	assert.InDelta(t, 50, stats.RefundRate, 0.001)
	assert.Equal(t, 1, stats.PendingRefunds)
	assert.InDelta(t, 1600, stats.AverageRefund, 0.001)
	assert.InDelta(t, 2000, stats.AverageBookingValue, 0.001)
	assert.InDelta(t, 50, stats.CancellationRate, 0.001)
	assert.Equal(t, 1, stats.UniqueCustomers)
	assert.Equal(t, 1, stats.RepeatCustomers)
	assert.InDelta(t, 2.5, stats.OccupancyRate, 0.001)

	require.Len(t, stats.Flights, 1)
	assert.Equal(t, 3, stats.Flights[0].Booked)
	assert.Equal(t, 117, stats.Flights[0].AvailableSeats)
	assert.InDelta(t, 2.5, stats.Flights[0].Occupancy, 0.001)
}

func TestStatisticsEmptyStore(t *testing.T) {
	stats, err := newTestStore(t).Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReservations)
	assert.Zero(t, stats.RefundRate)
	assert.Len(t, stats.ByStatus, len(models.ReservationStatuses))
}

func TestStatisticsForPeriod(t *testing.T) {
	ctx := context.Background()
	now := fixedNow.AddDate(0, 0, -2)
	s := NewStore(WithClock(func() time.Time { return now }))
	seedFlight(t, s, "AI101", 20, 100)
	first := seedCustomer(t, s, "first")
	second := seedCustomer(t, s, "second")

	early := book(t, s, "AI101", first, 1)
	now = fixedNow
	book(t, s, "AI101", first, 2)
	book(t, s, "AI101", second, 3)
	_, err := s.CancelReservation(ctx, early)
	require.NoError(t, err)
	_, err = s.ProcessRefund(ctx, RefundRequest{ReservationID: early, Amount: 1600, Reason: models.RefundReasonOther, Percentage: 80})
	require.NoError(t, err)

	today := models.DateOf(fixedNow)
	stats, err := s.StatisticsFor(ctx, models.Period{From: today, To: today})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReservations)
	assert.Equal(t, 2, stats.UniqueCustomers)
	assert.Zero(t, stats.RepeatCustomers)
	assert.InDelta(t, 4000, stats.ConfirmedRevenue, 0.001)
	assert.Zero(t, stats.ProcessedRefunds, "refund belongs to an earlier booking")
	assert.Zero(t, stats.CancellationRate)
	assert.InDelta(t, 200.0/120, stats.OccupancyRate, 0.001)
	require.Len(t, stats.Flights, 1)
	assert.Equal(t, 2, stats.Flights[0].Booked)

	stats, err = s.StatisticsFor(ctx, models.Period{To: today})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReservations)
	assert.Equal(t, 1, stats.RepeatCustomers)
	assert.Equal(t, 1, stats.ProcessedRefunds)
	assert.InDelta(t, 100.0/3, stats.CancellationRate, 0.001)

	_, err = s.StatisticsFor(ctx, models.Period{From: today, To: today.AddDays(-1)})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSubmitStatistics(t *testing.T) {
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	book(t, s, "AI101", seedCustomer(t, s, "c"), 1)

	select {
	case res, ok := <-s.SubmitStatistics(context.Background(), models.Period{}):
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.Equal(t, 1, res.Stats.TotalReservations)
	case <-time.After(time.Second):
		t.Fatal("statistics not delivered")
	}
}

func TestWriterFailsFastWhenBusy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithLockTimeout(20*time.Millisecond))

	unlock, err := s.mu.lock(ctx, "test")
	require.NoError(t, err)

	start := time.Now()
	_, err = s.CreateCustomer(ctx, models.Customer{Name: "blocked"})
	assert.ErrorIs(t, err, ErrStoreBusy)
	assert.Equal(t, KindBusy, KindOf(err))
	assert.Less(t, time.Since(start), time.Second)

	unlock()

	id, err := s.CreateCustomer(ctx, models.Customer{Name: "free"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestReadersShareTheStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithLockTimeout(20*time.Millisecond))

	release, err := s.mu.rlock(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Statistics(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = s.CreateCustomer(ctx, models.Customer{Name: "writer"})
	assert.ErrorIs(t, err, ErrStoreBusy)
	release()
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithLockTimeout(5*time.Second))
	seedFlight(t, s, "AI101", 0, 10)
	custID := seedCustomer(t, s, "c")

	var wg sync.WaitGroup
	var mu sync.Mutex
	booked := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(seat int) {
			defer wg.Done()
			_, err := s.CreateReservation(ctx, ReservationRequest{
				FlightCode: "AI101",
				CustomerID: custID,
				SeatClass:  models.SeatClassEconomy,
				SeatNumber: seat%10 + 1,
				TravelDate: tomorrow(),
			})
			if err == nil {
				mu.Lock()
				booked++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, booked)
	avail, err := s.AvailableSeats(ctx, "AI101")
	require.NoError(t, err)
	assert.Zero(t, avail)
}

func TestFirstOnlyRefundRespectsEarlierDecision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedFlight(t, s, "AI101", 20, 100)
	id := book(t, s, "AI101", seedCustomer(t, s, "c"), 1)
	_, err := s.CancelReservation(ctx, id)
	require.NoError(t, err)

	_, err = s.ProcessRefund(ctx, RefundRequest{
		ReservationID: id,
		Reason:        models.RefundReasonOther,
		Status:        models.RefundStatusRejected,
	})
	require.NoError(t, err)

	_, err = s.ProcessRefund(ctx, RefundRequest{
		ReservationID: id,
		Amount:        1600,
		Reason:        models.RefundReasonAutoProcessed,
		Percentage:    80,
		FirstOnly:     true,
	})
	assert.ErrorIs(t, err, ErrRefundExists)
	assert.Equal(t, KindConflict, KindOf(err))

	r, err := s.GetReservation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, r.Status)
	refunds, err := s.ListRefunds(ctx, "")
	require.NoError(t, err)
	assert.Len(t, refunds, 1)

	_, err = s.ProcessRefund(ctx, RefundRequest{ReservationID: id, Amount: 1000, Reason: models.RefundReasonOther, Percentage: 50})
	assert.NoError(t, err, "an explicit refund may follow a rejection")
}
