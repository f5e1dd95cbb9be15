package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the client core and the HTTP layers.
const (
	CodeDecodeFailed     = "DECODE_FAILED"
	CodeAuthRejected     = "AUTH_REJECTED"
	CodeAuthIrrelevant   = "AUTH_IRRELEVANT"
	CodeTransientNetwork = "TRANSIENT_NETWORK"
	CodeBackendError     = "BACKEND_ERROR"

	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
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

// NewDecodeError reports a malformed or incomplete session token.
func NewDecodeError(err error) error {
	return &DomainError{
		Code:       CodeDecodeFailed,
		Message:    "invalid session token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// NewAuthRejected reports a 401/403 classified as an authentication failure.
func NewAuthRejected(status int, message, path string) error {
	return &DomainError{
		Code:       CodeAuthRejected,
		Message:    message,
		HTTPStatus: status,
		Details:    map[string]any{"path": path},
	}
}

// NewAuthIrrelevant reports a 401/403 unrelated to the session itself.
func NewAuthIrrelevant(status int, message, path string) error {
	return &DomainError{
		Code:       CodeAuthIrrelevant,
		Message:    message,
		HTTPStatus: status,
		Details:    map[string]any{"path": path},
	}
}

// NewTransientNetworkError reports a timeout or a request that got no response.
func NewTransientNetworkError(path string, attempts int, err error) error {
	return &DomainError{
		Code:       CodeTransientNetwork,
		Message:    "backend unreachable",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"path": path, "attempts": attempts},
		Err:        err,
	}
}

// NewBackendError reports any other non-2xx backend response.
func NewBackendError(status int, message, path string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &DomainError{
		Code:       CodeBackendError,
		Message:    message,
		HTTPStatus: status,
		Details:    map[string]any{"path": path},
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
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
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the DomainError code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given DomainError code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
