package usecase

import (
	"errors"

	"roadside-assist/internal/data/entity"

	"github.com/google/uuid"
)

// Error kinds returned by services. Handlers map them to HTTP status codes
// with errors.Is; the wrapped message is safe to show to the caller.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrSecurityViolation = errors.New("security violation")
	ErrUpstreamFailure   = errors.New("upstream failure")
	ErrConflict          = errors.New("conflict")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   entity.UserRole
}
