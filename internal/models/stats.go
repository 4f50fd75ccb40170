package models

// Statistics is an aggregate view over reservations and refunds. Flights and
// OccupancyRate describe current seat holds; every other figure covers the
// reservations booked within Period and their refunds.
type Statistics struct {
	Period              Period                    `json:"period"`
	TotalReservations   int                       `json:"total_reservations"`
	ByStatus            map[ReservationStatus]int `json:"by_status"`
	ConfirmedRevenue    float64                   `json:"confirmed_revenue"`
	AverageBookingValue float64                   `json:"average_booking_value"`
	CancellationRate    float64                   `json:"cancellation_rate"`
	UniqueCustomers     int                       `json:"unique_customers"`
	RepeatCustomers     int                       `json:"repeat_customers"`
	RefundedAmount      float64                   `json:"refunded_amount"`
	RefundRate          float64                   `json:"refund_rate"`
	ProcessedRefunds    int                       `json:"processed_refunds"`
	PendingRefunds      int                       `json:"pending_refunds"`
	AverageRefund       float64                   `json:"average_refund"`
	OccupancyRate       float64                   `json:"occupancy_rate"`
	Flights             []FlightOccupancy         `json:"flights"`
}

// Period is an inclusive range of booking days. A zero bound is open.
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Valid reports whether From is not after To
func (p Period) Valid() bool {
	return p.From.IsZero() || p.To.IsZero() || !p.To.Before(p.From)
}

// Contains reports whether d falls within the period
func (p Period) Contains(d Date) bool {
	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && p.To.Before(d) {
		return false
	}
	return true
}

// FlightOccupancy describes seat usage on a single flight
type FlightOccupancy struct {
	FlightCode     string  `json:"flight_code"`
	Capacity       int     `json:"capacity"`
	Booked         int     `json:"booked"`
	AvailableSeats int     `json:"available_seats"`
	Occupancy      float64 `json:"occupancy"`
	Revenue        float64 `json:"revenue"`
}
