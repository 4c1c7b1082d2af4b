package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrAuth       = errors.New("authentication failed")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AuthFailed returns an AppError for a bad credential or an invalid session.
// HTTP handlers map this to 401 Unauthorized.
func AuthFailed(message string) *AppError {
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// DuplicateIdentity is the signup failure for an email that is already taken.
// It matches both ErrAuth and ErrConflict, so callers checking either see it;
// HTTP handlers report it as 409 Conflict.
func DuplicateIdentity(field, value string) *AppError {
	return &AppError{
		Err:     errors.Join(ErrAuth, ErrConflict),
		Message: fmt.Sprintf("an account with %s %s already exists", field, value),
		Field:   field,
	}
}
