package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed schedule or request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InactiveScheduleError is returned when executing a schedule that is no longer active
type InactiveScheduleError struct {
	ScheduleID int64
}

func (e *InactiveScheduleError) Error() string {
	return fmt.Sprintf("schedule %d is inactive", e.ScheduleID)
}

// NotFoundError reports an unknown resource id
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// PersistenceError wraps a failed store operation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it already is a persistence error
func NewPersistenceError(op string, err error) error {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInactive reports whether err is (or wraps) an InactiveScheduleError
func IsInactive(err error) bool {
	var ie *InactiveScheduleError
	return errors.As(err, &ie)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
