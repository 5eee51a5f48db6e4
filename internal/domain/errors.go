package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Notification collaborator errors (NOTIFY_*)
	ErrorCodeNotifyDeliveryFailed ErrorCode = "NOTIFY_DELIVERY_FAILED"
	ErrorCodeNotifyNoRecipient    ErrorCode = "NOTIFY_NO_RECIPIENT"

	// Client state store errors (STATE_*)
	ErrorCodeStateUnavailable ErrorCode = "STATE_UNAVAILABLE"
	ErrorCodeStateKeyMissing  ErrorCode = "STATE_KEY_MISSING"

	// Internal errors (INTERNAL_*)
	ErrorCodePipelinePanicked ErrorCode = "INTERNAL_PIPELINE_PANIC"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotifyError checks if an error came from the notification collaborator.
// These are logged and swallowed; they must never affect routing.
func IsNotifyError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeNotifyDeliveryFailed || code == ErrorCodeNotifyNoRecipient
}

// IsStateError checks if an error came from the client state store.
// State reads and writes are best-effort; callers degrade, never fail.
func IsStateError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeStateUnavailable || code == ErrorCodeStateKeyMissing
}

// Structured error instances
var (
	ErrNoRecipient      = NewDomainError(ErrorCodeNotifyNoRecipient, "no recipient resolvable for notification")
	ErrStateUnavailable = NewDomainError(ErrorCodeStateUnavailable, "client state store unavailable")
	ErrStateKeyMissing  = NewDomainError(ErrorCodeStateKeyMissing, "client state key not found")
)
