package suggestions

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("suggestion not found")
	ErrConflict   = errors.New("suggestion already resolved")
	ErrValidation = errors.New("suggestion validation failed")
)

// MapHTTPStatus translates suggestion errors to HTTP status codes.
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
