package db

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/lib/pq"

	"boxoffice/entity"
)

const onePendingOrderConstraint = "ticket_orders_one_pending"

// TranslateError maps storage failures onto the engine's error taxonomy:
// serialization conflicts, deadlocks and lock/statement timeouts become
// retryable TransientError, and a violation of the one-pending-order
// partial unique index becomes ErrConcurrentBooking.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57014": // query_canceled (statement timeout)
			return entity.TransientError{Err: err}
		case "23505": // unique_violation
			if pqErr.Constraint == onePendingOrderConstraint {
				return entity.ErrConcurrentBooking
			}
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return entity.TransientError{Err: err}
	}

	return err
}
