package entity

import "errors"

// Validation errors: safe to report to the caller, never retried.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNoTicketsSelected    = errors.New("no tickets selected")
	ErrEventCancelled       = errors.New("event is cancelled")
	ErrEventInPast          = errors.New("event has already started")
	ErrMembershipRequired   = errors.New("active membership required")
	ErrInvalidTierSelection = errors.New("invalid tier selection")
	ErrConcurrentBooking    = errors.New("user already has a pending order for this event")
)

// Capacity errors: legitimate outcomes of losing a race, never retried
// automatically.
var (
	ErrTierCapacityExceeded = errors.New("tier capacity exceeded")
	ErrEventAtCapacity      = errors.New("event at capacity")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
)

// TransientError marks infrastructure failures (lock timeout, serialization
// conflict, lost connection) that are eligible for a bounded retry. It is
// never used for capacity or validation errors.
type TransientError struct {
	Err error
}

func (e TransientError) Error() string {
	return "transient storage error: " + e.Err.Error()
}

func (e TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var t TransientError
	return errors.As(err, &t)
}
