package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps internal error detail out of responses.
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "upload too large"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return domain.Describe(err)
	}
}
