package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeReservationCreated   = "RESERVATION_CREATED"
	EventTypeReservationCancelled = "RESERVATION_CANCELLED"
	EventTypeRefundCreated        = "REFUND_CREATED"
	EventTypeRefundSettled        = "REFUND_SETTLED"
	EventTypeFlightCreated        = "FLIGHT_CREATED"
	EventTypeFaresUpdated         = "FARES_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event id and the current time
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// Type returns the event type
func (e BaseEvent) Type() string { return e.EventType }

// ReservationCreatedEvent published when a booking is made
type ReservationCreatedEvent struct {
	BaseEvent
	ReservationID int64             `json:"reservation_id"`
	FlightCode    string            `json:"flight_code"`
	CustomerID    int64             `json:"customer_id"`
	SeatClass     SeatClass         `json:"seat_class"`
	Status        ReservationStatus `json:"status"`
	Fare          float64           `json:"fare"`
}

// ReservationCancelledEvent published when a booking is cancelled
type ReservationCancelledEvent struct {
	BaseEvent
	ReservationID int64   `json:"reservation_id"`
	FlightCode    string  `json:"flight_code"`
	Fare          float64 `json:"fare"`
}

// RefundEvent published when a refund is created or settled
type RefundEvent struct {
	BaseEvent
	RefundID      int64        `json:"refund_id"`
	ReservationID int64        `json:"reservation_id"`
	Amount        float64      `json:"amount"`
	Status        RefundStatus `json:"status"`
	Reason        string       `json:"reason"`
}

// FlightEvent published when a flight is created or its fares change
type FlightEvent struct {
	BaseEvent
	FlightCode string `json:"flight_code"`
	Fares      Fares  `json:"fares"`
}
