// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
	"strings"
)

// Sentinel errors for domain layer.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrNotFound covers both absent records and records the caller may not
	// see, so existence is never leaked through the error kind.
	ErrNotFound          = errors.New("resource not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("scheduling conflict")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrDuplicate         = errors.New("duplicate entry")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fieldErr *FieldErrors
	switch {
	case errors.As(err, &fieldErr):
		ValidationProblem(w, fieldErr)
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", detail(err, ErrValidation))
	case errors.Is(err, ErrConflict):
		// Clients render the resolver's reason verbatim, keep the detail.
		Problem(w, http.StatusConflict, "Conflict", detail(err, ErrConflict))
	case errors.Is(err, ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid State Transition", detail(err, ErrInvalidTransition))
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// detail extracts the human-readable suffix from a wrapped sentinel, so
// fmt.Errorf("%w: mentor already booked", ErrConflict) yields just the reason.
func detail(err error, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return ""
}
