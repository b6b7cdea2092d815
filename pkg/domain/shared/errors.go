// Package shared provides domain types used across all aggregates.
package shared

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrValidation    = errors.New("validation error")

	// ErrStoreUnavailable signals a transient backing-store failure.
	// It is the only error class callers may retry; every other domain
	// error is deterministic for the given request.
	ErrStoreUnavailable = errors.New("entitlement store unavailable")
)

// StoreError wraps a backing-store failure so callers can distinguish
// transient persistence problems from terminal domain outcomes.
type StoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap reports the error as ErrStoreUnavailable in addition to the cause.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// NewStoreError creates a StoreError for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if the error is a transient store failure.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
