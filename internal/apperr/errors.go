// Package apperr holds the error taxonomy shared by the order core. Layers
// wrap these sentinels with fmt.Errorf("%w: ...") and the HTTP layer maps
// them to status codes with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrForbidden         = errors.New("access denied")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
)

// HTTPStatus maps err onto a response code. Unknown errors are server errors.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsDomain reports whether err belongs to the taxonomy, i.e. its message is
// safe to hand back to the caller.
func IsDomain(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
