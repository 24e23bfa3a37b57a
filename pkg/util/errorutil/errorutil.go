package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the helpdesk client, the console flows and the console API.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInvalid         = "INVALID"
	CodeNotFound        = "NOT_FOUND"
	CodeUnreachable     = "UNREACHABLE"
	CodeServerError     = "SERVER_ERROR"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
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

// NewUnauthenticated reports a missing or expired helpdesk session.
func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewUnauthorized reports an operation the session may not perform.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusForbidden, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeInvalid, message, http.StatusBadRequest, details)
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

// NewUnreachable wraps a transport failure. These are the only retryable errors.
func NewUnreachable(err error) error {
	return &DomainError{
		Code:       CodeUnreachable,
		Message:    "helpdesk unreachable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewServerError reports a 5xx (or an explicit failure body) from the helpdesk.
func NewServerError(status int, message string) error {
	if message == "" {
		message = fmt.Sprintf("helpdesk error (HTTP %d)", status)
	}
	return &DomainError{
		Code:       CodeServerError,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"upstream_status": status},
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
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
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			details := map[string]any{"step": stepErr.Step}
			for k, v := range domainErr.Details {
				details[k] = v
			}
			return &DomainError{
				Code:       domainErr.Code,
				Message:    stepErr.Error(),
				HTTPStatus: domainErr.HTTPStatus,
				Details:    details,
				Err:        domainErr.Err,
			}
		}
		return domainErr
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// KindOf returns the error code carried anywhere in err's chain, or
// CodeInternal for foreign errors. nil yields "".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && KindOf(err) == code
}

// Retryable reports whether re-invoking the same call may succeed.
func Retryable(err error) bool {
	return Is(err, CodeUnreachable)
}

// FromStatus maps an upstream HTTP status to the error taxonomy.
func FromStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return NewUnauthenticated(message)
	case status == http.StatusForbidden:
		return NewUnauthorized(message)
	case status == http.StatusNotFound:
		return NewDomainError(CodeNotFound, message, http.StatusNotFound, nil)
	case status >= 500:
		return NewServerError(status, message)
	case status >= 400:
		return NewValidationError(message, map[string]any{"upstream_status": status})
	default:
		return NewServerError(status, message)
	}
}

// NewHTTPError builds a DomainError for a console API status raised by
// the transport layer itself (bad route, bad payload).
func NewHTTPError(status int, message string) *DomainError {
	var domainErr *DomainError
	switch status {
	case http.StatusUnauthorized:
		domainErr = NewDomainError(CodeUnauthenticated, message, status, nil)
	case http.StatusForbidden:
		domainErr = NewDomainError(CodeUnauthorized, message, status, nil)
	case http.StatusNotFound:
		domainErr = NewDomainError(CodeNotFound, message, status, nil)
	case http.StatusConflict:
		domainErr = NewDomainError(CodeConflict, message, status, nil)
	default:
		if status >= 500 {
			domainErr = NewDomainError(CodeInternal, message, status, nil)
		} else {
			domainErr = NewDomainError(CodeInvalid, message, status, nil)
		}
	}
	return domainErr
}
