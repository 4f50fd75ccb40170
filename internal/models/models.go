package models

import (
	"strings"
	"time"
)

// Customer represents a passenger profile
type Customer struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	ContactName string `db:"contact_name" json:"contact_name"`
	Gender      string `db:"gender" json:"gender"`
	DateOfBirth Date   `db:"date_of_birth" json:"date_of_birth"`
	Address     string `db:"address" json:"address"`
	Phone       string `db:"phone" json:"phone"`
	Profession  string `db:"profession" json:"profession"`
	Concession  string `db:"concession" json:"concession"`
}

// SeatInventory holds the seat allotment per fare tier
type SeatInventory struct {
	Executive int `db:"executive_seats" json:"executive"`
	Economy   int `db:"economy_seats" json:"economy"`
	Business  int `db:"business_seats" json:"business"`
}

// Total returns the sum of all tiers
func (s SeatInventory) Total() int {
	return s.Executive + s.Economy + s.Business
}

// ForClass returns the allotment for a seat class
func (s SeatInventory) ForClass(class SeatClass) int {
	switch class {
	case SeatClassExecutive:
		return s.Executive
	case SeatClassEconomy:
		return s.Economy
	case SeatClassBusiness:
		return s.Business
	}
	return 0
}

// Fares holds the ticket price per fare tier
type Fares struct {
	Executive float64 `db:"executive_fare" json:"executive"`
	Economy   float64 `db:"economy_fare" json:"economy"`
	Business  float64 `db:"business_fare" json:"business"`
}

// For returns the fare for a seat class. An unset business fare is quoted
// at 1.5x the executive fare.
func (f Fares) For(class SeatClass) float64 {
	switch class {
	case SeatClassExecutive:
		return f.Executive
	case SeatClassEconomy:
		return f.Economy
	case SeatClassBusiness:
		if f.Business > 0 {
			return f.Business
		}
		return f.Executive * 1.5
	}
	return 0
}

// ProfitMargin estimates the margin in percent, assuming the economy fare
// carries a 40% margin over cost.
func (f Fares) ProfitMargin() float64 {
	avg := (f.Executive + f.Economy + f.Business) / 3
	if avg == 0 {
		return 0
	}
	baseCost := f.Economy * 0.6
	return (avg - baseCost) / avg * 100
}

// Scale returns the fares multiplied by m
func (f Fares) Scale(m float64) Fares {
	return Fares{
		Executive: f.Executive * m,
		Economy:   f.Economy * m,
		Business:  f.Business * m,
	}
}

// Flight represents a scheduled flight
type Flight struct {
	Code        string        `db:"code" json:"code"`
	Name        string        `db:"name" json:"name"`
	Origin      string        `db:"origin" json:"origin"`
	Destination string        `db:"destination" json:"destination"`
	Departure   time.Time     `db:"departure" json:"departure"`
	Arrival     time.Time     `db:"arrival" json:"arrival"`
	Seats       SeatInventory `json:"seats"`
	Fares       Fares         `json:"fares"`
}

// TotalCapacity returns the number of seats across all tiers
func (f Flight) TotalCapacity() int {
	return f.Seats.Total()
}

// CodeKey returns the case-insensitive match key for a flight code
func CodeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Reservation represents a booking (PNR)
type Reservation struct {
	ID         int64             `db:"id" json:"id"`
	FlightCode string            `db:"flight_code" json:"flight_code"`
	CustomerID int64             `db:"customer_id" json:"customer_id"`
	SeatClass  SeatClass         `db:"seat_class" json:"seat_class"`
	SeatNumber int               `db:"seat_number" json:"seat_number"`
	TravelDate Date              `db:"travel_date" json:"travel_date"`
	Status     ReservationStatus `db:"status" json:"status"`
	Fare       float64           `db:"fare" json:"fare"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
}

// Refund represents money returned for a cancelled reservation
type Refund struct {
	ID            int64        `db:"id" json:"id"`
	ReservationID int64        `db:"reservation_id" json:"reservation_id"`
	Amount        float64      `db:"amount" json:"amount"`
	Status        RefundStatus `db:"status" json:"status"`
	Reason        string       `db:"reason" json:"reason"`
	Percentage    int          `db:"percentage" json:"percentage"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
}

// SeatClass is a fare tier
type SeatClass string

// Seat classes
const (
	SeatClassEconomy   SeatClass = "ECO"
	SeatClassExecutive SeatClass = "EXE"
	SeatClassBusiness  SeatClass = "BUS"
)

// Valid reports whether c is a known seat class
func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassExecutive, SeatClassBusiness:
		return true
	}
	return false
}

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

// Reservation statuses
const (
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusWaiting   ReservationStatus = "WAITING"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusRefunded  ReservationStatus = "REFUNDED"
)

// ReservationStatuses lists every reservation status in lifecycle order
var ReservationStatuses = []ReservationStatus{
	ReservationStatusConfirmed,
	ReservationStatusWaiting,
	ReservationStatusCancelled,
	ReservationStatusRefunded,
}

// HoldsSeat reports whether a reservation in this status consumes a seat
func (s ReservationStatus) HoldsSeat() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusWaiting
}

// RefundStatus is the processing state of a refund
type RefundStatus string

// Refund statuses
const (
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusProcessed RefundStatus = "PROCESSED"
	RefundStatusRejected  RefundStatus = "REJECTED"
	RefundStatusPartial   RefundStatus = "PARTIAL"
)

// Valid reports whether s is a known refund status
func (s RefundStatus) Valid() bool {
	switch s {
	case RefundStatusPending, RefundStatusProcessed, RefundStatusRejected, RefundStatusPartial:
		return true
	}
	return false
}

// Settles reports whether a refund in this status pays out and closes the reservation
func (s RefundStatus) Settles() bool {
	return s == RefundStatusProcessed || s == RefundStatusPartial
}

// Refund reasons
const (
	RefundReasonCustomerRequest    = "Customer Request"
	RefundReasonFlightCancellation = "Flight Cancellation"
	RefundReasonScheduleChange     = "Schedule Change"
	RefundReasonPersonalEmergency  = "Personal Emergency"
	RefundReasonDuplicateBooking   = "Duplicate Booking"
	RefundReasonPaymentIssue       = "Payment Issue"
	RefundReasonOther              = "Other"
	RefundReasonAutoProcessed      = "Auto Processed"
)

var refundReasons = map[string]bool{
	RefundReasonCustomerRequest:    true,
	RefundReasonFlightCancellation: true,
	RefundReasonScheduleChange:     true,
	RefundReasonPersonalEmergency:  true,
	RefundReasonDuplicateBooking:   true,
	RefundReasonPaymentIssue:       true,
	RefundReasonOther:              true,
	RefundReasonAutoProcessed:      true,
}

// ValidRefundReason reports whether reason is one of the accepted refund reasons
func ValidRefundReason(reason string) bool {
	return refundReasons[reason]
}
