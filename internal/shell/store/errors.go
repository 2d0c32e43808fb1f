// Package store provides persistence for sponsors.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when a sponsor is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateName is returned when creating a sponsor with a name that is taken.
	ErrDuplicateName = errors.New("sponsor with this name already exists")

	// ErrConnectionFailed is returned when the backend connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrInvalidData is returned when a stored document cannot be decoded.
	ErrInvalidData = errors.New("invalid data format")

	// ErrUnknownDriver is returned when the configured backend is not supported.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g., "CreateSponsor")
	Entity  string // Entity type (e.g., "sponsor")
	ID      string // Sponsor name if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, entity, id, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
