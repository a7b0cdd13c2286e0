package linked

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the linked entity does not exist.
	ErrNotFound = errors.New("linked: entity not found")
	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("linked: invalid input")
	// ErrPersistence indicates the entity could not be stored after its sub-account was provisioned.
	ErrPersistence = errors.New("linked: entity persistence failed")
)

// PersistenceError reports a failed entity write together with the outcome
// of the compensating sub-account deletion.
type PersistenceError struct {
	Err             error
	SubAccountID    uuid.UUID
	Compensated     bool
	CompensationErr error
}

func (e *PersistenceError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("linked: entity persistence failed, sub-account %s rolled back: %v", e.SubAccountID, e.Err)
	}
	return fmt.Sprintf("linked: entity persistence failed, sub-account %s left behind (%v): %v", e.SubAccountID, e.CompensationErr, e.Err)
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Unwrap exposes the storage error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
