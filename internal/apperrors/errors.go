package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error into one of the stable error codes
// surfaced to callers. Handlers translate kinds into HTTP statuses.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindForbidden           Kind = "FORBIDDEN"
	KindNotFound            Kind = "NOT_FOUND"
	KindConflict            Kind = "CONFLICT"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindIdempotencyConflict Kind = "IDEMPOTENCY_CONFLICT"
	KindInvariantViolation  Kind = "INVARIANT_VIOLATION"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// AppError is the typed error carried across service boundaries. Details
// hold structured context (ids, fields) for the boundary layer to expose.
type AppError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by kind so errors.Is comparisons work without
// comparing messages.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Kind == appErr.Kind
	}
	return false
}

func newError(kind Kind, message string, details map[string]any) *AppError {
	return &AppError{Kind: kind, Message: message, Details: details}
}

func NewValidation(message string, details map[string]any) *AppError {
	return newError(KindValidation, message, details)
}

func NewUnauthorized(message string) *AppError {
	return newError(KindUnauthorized, message, nil)
}

func NewForbidden(message string, details map[string]any) *AppError {
	return newError(KindForbidden, message, details)
}

func NewNotFound(message string, details map[string]any) *AppError {
	return newError(KindNotFound, message, details)
}

func NewConflict(message string, details map[string]any) *AppError {
	return newError(KindConflict, message, details)
}

func NewIdempotencyConflict(message string) *AppError {
	return newError(KindIdempotencyConflict, message, nil)
}

// NewInvariantViolation marks a condition that indicates a bug or tampering
// (unbalanced journal, chain break, reservation underflow). It must fail the
// enclosing unit of work and never be masked.
func NewInvariantViolation(message string, details map[string]any) *AppError {
	return newError(KindInvariantViolation, message, details)
}

func NewInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the Kind from err, or KindInternal when err is not an
// AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DetailsOf returns the structured details of err, or nil.
func DetailsOf(err error) map[string]any {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
