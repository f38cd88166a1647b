package utils

import (
	"errors"
	"net/http"
)

var ErrorRecordNotFound = errors.New("record not found")

// AppError is the stable, machine-readable error surface. Handlers map it to
// the JSON envelope; internal error text never reaches the client.
type AppError struct {
	Code    string
	Message string
	Status  int
}

func (e *AppError) Error() string { return e.Code + ": " + e.Message }

func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message, Status: http.StatusBadRequest}
}

func NewInvalidTransitionError(message string) *AppError {
	return &AppError{Code: "INVALID_TRANSITION", Message: message, Status: http.StatusBadRequest}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: "UNAUTHENTICATED", Message: message, Status: http.StatusUnauthorized}
}

func NewServiceUnavailableError(message string) *AppError {
	return &AppError{Code: "SERVICE_UNAVAILABLE", Message: message, Status: http.StatusServiceUnavailable}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: http.StatusForbidden}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: "CONFLICT", Message: message, Status: http.StatusConflict}
}

// AsAppError unwraps err to an *AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
