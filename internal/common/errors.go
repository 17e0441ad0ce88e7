package common

import (
	"context"
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
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrPersistenceCorruption = errors.New("persisted data is corrupt")
	ErrNoNotes               = errors.New("book has no notes")
)

// Capture pipeline outcomes
var (
	ErrNoTextDetected     = errors.New("no text detected in image")
	ErrNoDelimitedContent = errors.New("no text between forward slashes found")
	ErrEngineFailure      = errors.New("ocr engine failure")
	ErrCaptureCancelled   = errors.New("capture cancelled")
	ErrCaptureInFlight    = errors.New("capture already in progress")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ToStatus maps a domain error onto a gRPC status so outer surfaces report a stable code.
// Errors that already carry a status are returned unchanged.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(CodeOf(err), err.Error())
}

// CodeOf classifies err without allocating a status.
func CodeOf(err error) codes.Code {
	var verr ValidationError
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput), errors.As(err, &verr):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrNoTextDetected), errors.Is(err, ErrNoDelimitedContent), errors.Is(err, ErrNoNotes):
		return codes.FailedPrecondition
	case errors.Is(err, ErrCaptureInFlight):
		return codes.Aborted
	case errors.Is(err, ErrCaptureCancelled), errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, ErrEngineFailure):
		return codes.Unavailable
	case errors.Is(err, ErrPersistenceCorruption):
		return codes.DataLoss
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}
