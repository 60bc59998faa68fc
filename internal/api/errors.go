package api

import (
	"errors"
	"net/http"

	"github.com/Mohamed-Rabiaa/Flasheeta/internal/domain"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/service/progress"
	"github.com/Mohamed-Rabiaa/Flasheeta/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, progress.ErrFlashcardNotFound),
		errors.Is(err, progress.ErrProgressNotFound),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, progress.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidReviewRating),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. Validation errors keep their field-level message since
// it is built from the allow-listed field set, not from internal state.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	switch {
	case errors.Is(err, progress.ErrFlashcardNotFound):
		return "Flashcard not found"

	case errors.Is(err, progress.ErrProgressNotFound):
		return "Progress not found"

	case errors.Is(err, progress.ErrInvalidRating):
		return "Rating must be one of: again, hard, good, easy"

	case errors.Is(err, domain.ErrInvalidFormat):
		return "Invalid date format, expected ISO-8601"

	case errors.Is(err, domain.ErrValidation):
		return "Invalid progress data"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	default:
		return "An unexpected error occurred"
	}
}
