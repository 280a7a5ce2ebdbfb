package apperr

import (
	"errors"
	"fmt"
)

// Error classes surfaced at the HTTP boundary.
//
// ValidationError -> 400, NotFound -> 404, PersistenceError -> 500.
// Anything else is treated as unexpected and also mapped to 500.

// ErrNotFound is returned when a document id is unknown.
var ErrNotFound = errors.New("document not found")

// ValidationError represents bad or missing caller input.
// Its message is safe to return to the caller.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a ValidationError with a caller-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// PersistenceError wraps an I/O failure on the metadata store.
type PersistenceError struct {
	op  string
	err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *PersistenceError) Unwrap() error {
	return e.err
}

// NewPersistenceError wraps err as a persistence failure of operation op.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{op: op, err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
