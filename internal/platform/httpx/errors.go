package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lexbill/lexbill/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Typed errors carry the offending entity/id/field so the UI can render a
// meaningful message; unknown errors are masked as 500.
func RespondError(w http.ResponseWriter, err error) {
	var (
		validation  *shared.ValidationError
		notFound    *shared.NotFoundError
		transition  *shared.InvalidStateTransitionError
		conflict    *shared.ConflictError
		rate        *shared.RateUnavailableError
		fieldErrors validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", validation.Error())
	case errors.As(err, &fieldErrors):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", fieldErrors.Error())
	case errors.As(err, &notFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &transition):
		Problem(w, http.StatusConflict, "Invalid Status Transition", transition.Error())
	case errors.As(err, &conflict):
		Problem(w, http.StatusConflict, "Conflict", conflict.Error())
	case errors.As(err, &rate):
		Problem(w, http.StatusBadGateway, "Rate Unavailable", rate.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
