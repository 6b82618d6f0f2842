package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same email).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when the store rejects an entity because it
	// violates a constraint (null, check or foreign key).
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrInvalidID is returned when an identifier is not in the store's native format.
	ErrInvalidID = errors.New("invalid identifier")

	// ErrInvalidSortField is returned when a list request names a sort field that
	// is not a plain or dotted identifier.
	ErrInvalidSortField = errors.New("invalid sort field")

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound indicates that no task matched the identifier.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError carries the entity and operation of a failed store call while
// keeping the underlying error reachable through errors.Is/As.
type StoreError struct {
	Entity    string // "user", "task"
	Operation string // "create", "list", ...
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Operation, e.Entity, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the entity and operation that produced it.
func NewStoreError(entity, operation string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Err: err}
}
