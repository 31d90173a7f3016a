package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// ErrNoData means the query succeeded but matched nothing. It is informational,
	// callers render an empty state instead of treating it as a failure.
	ErrNoData = errors.New("no data available")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrSessionExpired     = errors.New("session expired")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidID        = errors.New("invalid id")
	ErrBadRequest       = errors.New("bad request")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrStorageTimeout     = errors.New("storage operation timed out")
)

// Student errors
var (
	ErrStudentNotFound  = NewResourceNotFoundError("student not found")
	ErrRollNumberExists = NewConflictError("roll number already exists")
	ErrUsernameExists   = NewConflictError("username already exists")
	ErrRollNumberLocked = NewBadRequestError("roll number cannot be changed")
)

// Academic history errors
var (
	ErrAcademicHistoryNotFound = NewResourceNotFoundError("academic history not found")
	ErrInvalidAverage          = NewBadRequestError("overall average does not match semester grades")
	ErrInvalidGrade            = NewBadRequestError("semester grade out of range")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string // Safe to show to clients
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
