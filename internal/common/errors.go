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
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDatabase           = errors.New("database error")
	ErrValidation         = errors.New("validation failed")
	ErrConstraintConflict = errors.New("uniqueness constraint violated")
	ErrLookup             = errors.New("parcel lookup failed")
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

// ConstraintConflictError is returned by the store when a write collides with
// an existing key. It is the only store failure the upsert engine recovers from.
type ConstraintConflictError struct {
	Table string
	Key   string
	Cause error
}

func (e *ConstraintConflictError) Error() string {
	return fmt.Sprintf("constraint conflict on %s (key %q): %v", e.Table, e.Key, e.Cause)
}

func (e *ConstraintConflictError) Unwrap() error { return e.Cause }

func (e *ConstraintConflictError) Is(target error) bool { return target == ErrConstraintConflict }

// StoreError is any store failure that is not a constraint conflict.
type StoreError struct {
	Op    string
	Table string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

func (e *StoreError) Is(target error) bool { return target == ErrDatabase }

// LookupError wraps a parcel collaborator failure.
type LookupError struct {
	ParcelID string
	Cause    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("parcel lookup %q: %v", e.ParcelID, e.Cause)
}

func (e *LookupError) Unwrap() error { return e.Cause }

func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// IsConstraintConflict reports whether err carries a ConstraintConflictError.
func IsConstraintConflict(err error) bool {
	var cc *ConstraintConflictError
	return errors.As(err, &cc)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalErrorf(format string, args ...interface{}) error {
	return InternalError(fmt.Sprintf(format, args...))
}
