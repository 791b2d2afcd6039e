// Package apperr holds the error taxonomy shared by the store, the domain
// packages and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidOrder = errors.New("invalid order")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	// ErrValidationSkipped marks a template block that was dropped. It is
	// logged, never returned to a caller.
	ErrValidationSkipped     = errors.New("validation skipped")
	ErrMaterializationFailed = errors.New("materialization failed")
	ErrStoreUnavailable      = errors.New("store unavailable")
)

// DomainError carries the HTTP shape of a failure next to the sentinel it wraps.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func domainError(status int, code, message string, details any, err error) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
		Err:     err,
	}
}

// NotFound reports a missing or invisible entity, e.g. NotFound("Board").
func NotFound(entity string) error {
	return domainError(http.StatusNotFound, "NOT_FOUND", entity+" not found", nil, ErrNotFound)
}

func Forbidden(message string) error {
	return domainError(http.StatusForbidden, "FORBIDDEN", message, nil, ErrForbidden)
}

func InvalidOrder(message string, details any) error {
	return domainError(http.StatusBadRequest, "INVALID_ORDER", message, details, ErrInvalidOrder)
}

func Invalid(message string) error {
	return domainError(http.StatusBadRequest, "INVALID_INPUT", message, nil, ErrInvalidInput)
}

func Conflict(message string) error {
	return domainError(http.StatusConflict, "CONFLICT", message, nil, ErrConflict)
}

// MaterializationFailed wraps the store failure that aborted a bulk create.
func MaterializationFailed(cause error) error {
	return &DomainError{
		Status:  http.StatusInternalServerError,
		Code:    "MATERIALIZATION_FAILED",
		Message: "Board could not be created",
		Err:     errors.Join(ErrMaterializationFailed, cause),
	}
}

// Unavailable wraps a connection level store failure. Callers may retry.
func Unavailable(cause error) error {
	return &DomainError{
		Status:  http.StatusServiceUnavailable,
		Code:    "STORE_UNAVAILABLE",
		Message: "Service temporarily unavailable",
		Err:     errors.Join(ErrStoreUnavailable, cause),
	}
}

// Map resolves err to the response the HTTP layer should write.
func Map(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "Forbidden", nil
	case errors.Is(err, ErrInvalidOrder):
		return http.StatusBadRequest, "INVALID_ORDER", "Invalid order", nil
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", "Invalid input", nil
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT", "Conflict", nil
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable", nil
	case errors.Is(err, ErrMaterializationFailed):
		return http.StatusInternalServerError, "MATERIALIZATION_FAILED", "Board could not be created", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
