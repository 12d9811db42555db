package domain

import (
	"errors"
	"fmt"
)

// ValidationError covers malformed or out-of-range input: missing required
// fields, bad enum values, references that don't resolve.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConflictError covers availability conflicts, duplicate codes and illegal
// state transitions. Conflicts are permanent rejections, never retried.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// ExternalServiceError wraps a failure from a collaborator outside the core,
// currently only the payment gateway.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// InvariantViolation signals a programming defect, e.g. a negative amount
// reaching the treasury. It is never caused by user input.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func ExternalService(service string, err error) error {
	return &ExternalServiceError{Service: service, Err: err}
}

func Invariantf(format string, args ...any) error {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsExternalService(err error) bool {
	var e *ExternalServiceError
	return errors.As(err, &e)
}

func IsInvariantViolation(err error) bool {
	var e *InvariantViolation
	return errors.As(err, &e)
}
