package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotFoundErrorUnwrapsToSentinel(t *testing.T) {
	err := &NotFoundError{Entity: "invoice", ID: 7}

	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, "invoice 7 not found", err.Error())
}

func TestNotFoundErrorOmitsZeroID(t *testing.T) {
	err := &NotFoundError{Entity: "active profile"}

	require.Equal(t, "active profile not found", err.Error())
}

func TestValidationErrorWithAndWithoutField(t *testing.T) {
	withField := &ValidationError{Field: "due_date", Reason: "must not be before issue_date"}
	require.Equal(t, "validation failed: due_date: must not be before issue_date", withField.Error())

	bare := &ValidationError{Reason: "empty body"}
	require.Equal(t, "validation failed: empty body", bare.Error())
}

func TestInvalidStateTransitionErrorMessage(t *testing.T) {
	err := &InvalidStateTransitionError{Entity: "invoice", ID: 3, From: "draft", To: "paid"}

	require.Equal(t, "invoice 3: invalid status transition draft -> paid", err.Error())
}

func TestConflictErrorMessage(t *testing.T) {
	err := &ConflictError{Entity: "time entry", ID: 11, Reason: "already billed"}

	require.Equal(t, "time entry 11: already billed", err.Error())
}

func TestRateUnavailableErrorIsNotNotFound(t *testing.T) {
	err := &RateUnavailableError{Currency: "USD"}

	require.Equal(t, "exchange rate unavailable for USD", err.Error())
	require.False(t, errors.Is(err, ErrNotFound))
}
