package reservation

import (
	"context"
	"fmt"

	"airline-reservation/internal/models"
)

// StatisticsResult is delivered by SubmitStatistics
type StatisticsResult struct {
	Stats models.Statistics
	Err   error
}

// Statistics derives aggregate figures over all records. Nothing is cached
// between calls.
func (s *Store) Statistics(ctx context.Context) (models.Statistics, error) {
	return s.StatisticsFor(ctx, models.Period{})
}

// StatisticsFor derives aggregate figures for reservations booked within
// period, in a single pass.
func (s *Store) StatisticsFor(ctx context.Context, period models.Period) (models.Statistics, error) {
	if !period.Valid() {
		return models.Statistics{}, fmt.Errorf("statistics %s..%s: %w", period.From, period.To, ErrInvalidPeriod)
	}

	unlock, err := s.mu.rlock(ctx)
	if err != nil {
		return models.Statistics{}, err
	}
	defer unlock()

	return s.computeStatistics(period), nil
}

// SubmitStatistics computes statistics on a separate goroutine. The returned
// channel receives exactly one result and is then closed.
func (s *Store) SubmitStatistics(ctx context.Context, period models.Period) <-chan StatisticsResult {
	out := make(chan StatisticsResult, 1)
	go func() {
		defer close(out)
		stats, err := s.StatisticsFor(ctx, period)
		out <- StatisticsResult{Stats: stats, Err: err}
	}()
	return out
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// computeStatistics walks every reservation and refund once. Caller holds the lock.
func (s *Store) computeStatistics(period models.Period) models.Statistics {
	stats := models.Statistics{
		Period:   period,
		ByStatus: make(map[models.ReservationStatus]int, len(models.ReservationStatuses)),
	}
	for _, st := range models.ReservationStatuses {
		stats.ByStatus[st] = 0
	}

	type flightAgg struct {
		booked  int
		revenue float64
	}
	perFlight := make(map[string]*flightAgg, len(s.flights))
	perCustomer := make(map[int64]int)
	inPeriod := make(map[int64]bool, len(s.reservations))
	var bookedValue float64

	for _, r := range s.reservations {
		key := models.CodeKey(r.FlightCode)
		agg, ok := perFlight[key]
		if !ok {
			agg = &flightAgg{}
			perFlight[key] = agg
		}
		if r.Status.HoldsSeat() {
			agg.booked++
		}
		if r.Status == models.ReservationStatusConfirmed {
			agg.revenue += r.Fare
		}

		if !period.Contains(models.DateOf(r.CreatedAt)) {
			continue
		}
		inPeriod[r.ID] = true
		stats.TotalReservations++
		stats.ByStatus[r.Status]++
		bookedValue += r.Fare
		perCustomer[r.CustomerID]++
		if r.Status == models.ReservationStatusConfirmed {
			stats.ConfirmedRevenue += r.Fare
		}
	}

	for _, rf := range s.refunds {
		if !inPeriod[rf.ReservationID] {
			continue
		}
		switch rf.Status {
		case models.RefundStatusProcessed:
			stats.ProcessedRefunds++
			stats.RefundedAmount += rf.Amount
		case models.RefundStatusPending:
			stats.PendingRefunds++
		}
	}

	stats.UniqueCustomers = len(perCustomer)
	for _, n := range perCustomer {
		if n > 1 {
			stats.RepeatCustomers++
		}
	}
	if stats.TotalReservations > 0 {
		stats.AverageBookingValue = bookedValue / float64(stats.TotalReservations)
	}
	// refunded reservations were cancelled first
	cancelled := stats.ByStatus[models.ReservationStatusCancelled]
	stats.CancellationRate = percent(float64(cancelled+stats.ByStatus[models.ReservationStatusRefunded]),
		float64(stats.TotalReservations))

	if cancelled < 1 {
		cancelled = 1
	}
	stats.RefundRate = float64(stats.ProcessedRefunds) / float64(cancelled) * 100
	if stats.ProcessedRefunds > 0 {
		stats.AverageRefund = stats.RefundedAmount / float64(stats.ProcessedRefunds)
	}

	var held, capacity int
	stats.Flights = make([]models.FlightOccupancy, 0, len(s.flightOrder))
	for _, key := range s.flightOrder {
		f := s.flights[key]
		occ := models.FlightOccupancy{
			FlightCode: f.Code,
			Capacity:   f.TotalCapacity(),
		}
		if agg, ok := perFlight[key]; ok {
			occ.Booked = agg.booked
			occ.Revenue = agg.revenue
		}
		occ.AvailableSeats = occ.Capacity - occ.Booked
		occ.Occupancy = percent(float64(occ.Booked), float64(occ.Capacity))
		held += occ.Booked
		capacity += occ.Capacity
		stats.Flights = append(stats.Flights, occ)
	}
	stats.OccupancyRate = percent(float64(held), float64(capacity))
	return stats
}
