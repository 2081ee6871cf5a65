package audit

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("audit entry not found")
	ErrConflict   = errors.New("audit entry conflict")
	ErrValidation = errors.New("audit validation failed")
)

// MapHTTPStatus translates audit errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
