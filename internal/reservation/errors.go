package reservation

import (
	"errors"
	"fmt"
)

// Kind is a coarse-grained categorization for store errors.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindBusy       Kind = "busy"
	KindInternal   Kind = "internal"
)

// Error is a classified store failure. Each failure condition is a distinct
// sentinel value so callers can match it with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrUnknownFlight      = newError(KindNotFound, "unknown flight")
	ErrUnknownCustomer    = newError(KindNotFound, "unknown customer")
	ErrUnknownReservation = newError(KindNotFound, "unknown reservation")
	ErrUnknownRefund      = newError(KindNotFound, "unknown refund")

	ErrDuplicateFlightCode     = newError(KindConflict, "duplicate flight code")
	ErrAlreadyCancelled        = newError(KindConflict, "reservation already cancelled")
	ErrReservationNotCancelled = newError(KindConflict, "reservation not cancelled")
	ErrInvalidStatusTransition = newError(KindConflict, "invalid status transition")
	ErrRefundPending           = newError(KindConflict, "refund already pending")
	ErrRefundExists            = newError(KindConflict, "reservation already has a refund")
	ErrFlightFull              = newError(KindConflict, "no seats left in fare tier")
	ErrSeatTaken               = newError(KindConflict, "seat already taken")
	ErrFlightInUse             = newError(KindConflict, "flight has reservations")
	ErrCustomerInUse           = newError(KindConflict, "customer has reservations")
	ErrCapacityBelowBooked     = newError(KindConflict, "capacity below booked seats")

	ErrInvalidCustomer     = newError(KindValidation, "invalid customer")
	ErrInvalidFlight       = newError(KindValidation, "invalid flight")
	ErrNegativeCapacity    = newError(KindValidation, "negative seat capacity")
	ErrInvalidTravelDate   = newError(KindValidation, "travel date is in the past")
	ErrNegativeFare        = newError(KindValidation, "negative fare")
	ErrInvalidSeat         = newError(KindValidation, "invalid seat")
	ErrInvalidPercentage   = newError(KindValidation, "refund percentage out of range")
	ErrInvalidRefundAmount = newError(KindValidation, "invalid refund amount")
	ErrInvalidRefundReason = newError(KindValidation, "invalid refund reason")
	ErrInvalidRefundStatus = newError(KindValidation, "invalid refund status")
	ErrInvalidFare         = newError(KindValidation, "fares must be positive")
	ErrInvalidFareOrder    = newError(KindValidation, "fares must satisfy economy < executive < business")
	ErrInvalidMultiplier   = newError(KindValidation, "fare multiplier must be positive")
	ErrInvalidPeriod       = newError(KindValidation, "period ends before it starts")

	ErrStoreBusy = newError(KindBusy, "store busy")

	ErrPersistence = newError(KindInternal, "persistence failure")
)

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind helps callers classify errors without matching individual conditions.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// persistErr wraps a repository failure so it classifies as internal while
// keeping the cause reachable.
func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
