package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidData marks data that failed a schema or compatibility check.
	ErrInvalidData = errors.New("invalid data")
	// ErrNotFound marks a lookup that resolved to nothing.
	ErrNotFound = errors.New("not found")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidData builds the data-validation error carrying a human readable message.
func InvalidData(message string) *AppError {
	return &AppError{
		Code:       "INVALID_DATA",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        fmt.Errorf("%w: %s", ErrInvalidData, message),
	}
}

// InvalidDataf is InvalidData with fmt formatting.
func InvalidDataf(format string, args ...any) *AppError {
	return InvalidData(fmt.Sprintf(format, args...))
}

// NotFound reports a missing record of the given kind.
func NotFound(resource, id string) *AppError {
	message := fmt.Sprintf("%s %s not found", resource, id)
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
		Err:        fmt.Errorf("%w: %s", ErrNotFound, message),
	}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
