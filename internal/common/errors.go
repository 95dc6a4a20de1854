package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	// ErrValidation marks a record with at least one failed check. It is
	// only logged; the outcome lives in the record's validations.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedInput marks empty or unreadable document text. The pipeline
	// answers it with an all-null record instead of returning it.
	ErrMalformedInput = errors.New("malformed input")
	// ErrAmbiguousValue is resolved by tie-break rules and only shows up in logs.
	ErrAmbiguousValue = errors.New("ambiguous value")
	// ErrExternalExtractor wraps any failure of the model-backed extractor.
	ErrExternalExtractor = errors.New("external extractor failure")
	// ErrInvalidTemplate is returned while loading template definitions.
	ErrInvalidTemplate = errors.New("invalid template")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}
