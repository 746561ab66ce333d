package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP status codes; concrete errors below wrap one of them.
var (
	ErrNotFound                 = errors.New("not found")
	ErrInvalidState             = errors.New("invalid state")
	ErrConflict                 = errors.New("conflict")
	ErrValidation               = errors.New("validation error")
	ErrInsufficientParticipants = errors.New("insufficient participants")
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// Registration manager
var (
	ErrEventNotFound        = fmt.Errorf("%w: event", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("%w: registration", ErrNotFound)
	ErrDeadlinePassed       = fmt.Errorf("%w: registration deadline has passed", ErrConflict)
	ErrCapacityExceeded     = fmt.Errorf("%w: event is full", ErrConflict)
	ErrAlreadyRegistered    = fmt.Errorf("%w: already registered", ErrConflict)
)

// Approval workflow
var (
	ErrInvalidStatus     = fmt.Errorf("%w: unknown status", ErrInvalidState)
	ErrInvalidTransition = fmt.Errorf("%w: transition not allowed", ErrInvalidState)
)

// Drawing engine
var (
	ErrSorteoNotFound      = fmt.Errorf("%w: sorteo", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant", ErrNotFound)
	ErrSorteoNotActive     = fmt.Errorf("%w: sorteo is not active", ErrInvalidState)
	ErrNotWinner           = fmt.Errorf("%w: participant is not a winner", ErrInvalidState)
	ErrAlreadyClaimed      = fmt.Errorf("%w: prize already claimed", ErrInvalidState)
	ErrAlreadyWinner       = fmt.Errorf("%w: participant is a winner", ErrInvalidState)
)

// Validation wraps a message as ErrValidation.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}
