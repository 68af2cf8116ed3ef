package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
)

// Pipeline and provider error kinds. Callers match these with errors.Is.
var (
	// ErrExtractionFailed means text or image extraction from a source file failed.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrProviderUnavailable means the AI backend is unreachable or unauthenticated.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderInvalidResponse means the AI backend answered but the payload
	// could not be parsed into the expected shape.
	ErrProviderInvalidResponse = errors.New("provider returned invalid response")

	// ErrIncompleteClassification means required DMC segments could not be
	// derived; the pipeline falls back to a generic code.
	ErrIncompleteClassification = errors.New("incomplete classification")

	// ErrValidationRule means a BREX rule descriptor is malformed.
	ErrValidationRule = errors.New("malformed validation rule")

	// ErrDuplicateIdentifier means a store rejected an identifier collision.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
