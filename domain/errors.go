package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across layers. The
// gateway decodes HTTP failures into exactly one of these once; everything
// above it switches on the code, never on status numbers.
type ErrorCode string

const (
	ErrCodeNetwork      ErrorCode = "NETWORK"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. FieldErrors carries per-field
// validation messages for INVALID errors so a form can stay open and show
// them next to the inputs.
type Error struct {
	Code        ErrorCode
	Message     string
	FieldErrors map[string]string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrNoSession      = NewError(ErrCodeUnauthorized, "no session")
	ErrTaskNotFound   = NewError(ErrCodeNotFound, "task not found")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Fields returns the per-field validation messages attached to err, if any.
func Fields(err error) map[string]string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.FieldErrors
	}
	return nil
}
