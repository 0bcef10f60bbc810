package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewStoreConnectionError reports a failure to reach the record store.
// Fatal for the current operation, retryable later.
func NewStoreConnectionError(err error) error {
	return &DomainError{
		Code:       "STORE_CONNECTION",
		Message:    "record store unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewRowNotFound reports an id absent from the cached row index.
func NewRowNotFound(id string) error {
	return &DomainError{
		Code:       "ROW_NOT_FOUND",
		Message:    "ticket row not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"ticket_id": id},
	}
}

// NewRowRelocated reports that the cached row no longer holds the expected id
// and a full rescan could not locate it either. Callers may retry once.
func NewRowRelocated(id string) error {
	return &DomainError{
		Code:       "ROW_RELOCATED",
		Message:    "ticket row relocated, retry required",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"ticket_id": id},
	}
}

// NewSchemaError reports required worksheet headers missing from the store.
func NewSchemaError(missing []string) error {
	return &DomainError{
		Code:       "SCHEMA_ERROR",
		Message:    "worksheet header row is missing required columns",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"missing": missing},
	}
}

// NewClassifierError reports a classifier network or parse failure. Always
// recoverable; callers fall back to an empty suggestion.
func NewClassifierError(err error) error {
	return &DomainError{
		Code:       "CLASSIFIER_ERROR",
		Message:    "classifier request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
