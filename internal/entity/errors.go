package entity

import (
	"errors"
	"fmt"
)

// Domain errors returned by the stores and services. The HTTP layer maps
// each kind to a fixed status code.
var (
	// ErrNotFound indicates a service or order id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a missing or malformed field in a request.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidReference indicates a submission points at something that does not exist.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrServiceNotFound is returned when a single-service order names an unknown service.
	ErrServiceNotFound = fmt.Errorf("service not found: %w", ErrInvalidReference)

	// ErrStorage indicates the database could not be reached or a write did not commit.
	ErrStorage = errors.New("storage failure")
)

// MissingFieldError names the first required field that was absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// Is reports MissingFieldError as a validation error.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}

// NewMissingField returns a MissingFieldError for field.
func NewMissingField(field string) error {
	return &MissingFieldError{Field: field}
}

// StorageError wraps a driver or transaction failure. Its message is only
// ever logged; callers receive a generic internal error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrStorage, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports StorageError as ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsDomainError reports whether err is one of the request-local kinds
// (validation, not found, invalid reference) rather than a storage failure.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidReference)
}
