package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates resource not found.
var ErrNotFound = errors.New("not found")

// ValidationError reports bad input shape or range. It is not used for
// missing resources; that is NotFoundError.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown id for a named entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateTransitionError reports an illegal status change attempt.
type InvalidStateTransitionError struct {
	Entity string
	ID     int64
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("%s %d: invalid status transition %s -> %s", e.Entity, e.ID, e.From, e.To)
}

// RateUnavailableError reports that a currency conversion is impossible:
// the daily feed failed and no cached rate exists for the currency.
type RateUnavailableError struct {
	Currency string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("exchange rate unavailable for %s", e.Currency)
}

// ConflictError reports a mutation of a field frozen by the entity's
// current state, e.g. editing a billed time entry.
type ConflictError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entity, e.ID, e.Reason)
}
