package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientCredit indicates that a company's available credit does not
// cover the amount an operation tried to allocate.
var ErrInsufficientCredit = errors.New("insufficient unallocated credit")

// ErrConcurrencyConflict indicates that a concurrent writer consumed credit
// between an operation's pre-check and its allocation. The operation was
// aborted without partial commit and is safe to retry.
var ErrConcurrencyConflict = errors.New("concurrent allocation conflict")

// ErrConflict indicates the operation conflicts with the current state of the
// resource (e.g. deleting a payment that still funds active allocations).
var ErrConflict = errors.New("operation conflicts with resource state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries a status code alongside the wrapped cause so the boundary
// layer can map failures without string matching.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
