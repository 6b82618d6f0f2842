package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every domain validation error, so callers can
// test for the whole family with errors.Is(err, ErrValidation).
var ErrValidation = errors.New("validation failed")

// Validation errors.
var (
	ErrEmptyEmail       = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyPassword    = fmt.Errorf("%w: password cannot be empty", ErrValidation)
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most %d characters long", ErrValidation, MaxPasswordLength)
	ErrEmptyOwner       = fmt.Errorf("%w: task owner cannot be empty", ErrValidation)
	ErrInvalidOwner     = fmt.Errorf("%w: task owner must be a string", ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: task status must be a string", ErrValidation)
	ErrInvalidFieldName = fmt.Errorf("%w: task field names must not be empty, start with '$' or contain '.'", ErrValidation)
)

// ErrUnauthorized is returned when a user acts on a resource they do not own.
var ErrUnauthorized = errors.New("unauthorized operation")
