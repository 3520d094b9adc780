package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"

	// Notification pipeline codes.
	ErrCodeStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeInvalidDigestInput ErrorCode = "INVALID_DIGEST_INPUT"
	ErrCodeTransportFailure   ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeTransportTimeout   ErrorCode = "TRANSPORT_TIMEOUT"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches sentinel domain errors by code and message so wrapped copies compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrCourseNotFound  = NewError(ErrCodeNotFound, "course not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrRunNotFound     = NewError(ErrCodeNotFound, "notification run not found")
	ErrUserExists      = NewError(ErrCodeConflict, "username or email already registered")
	ErrForbidden       = NewError(ErrCodeForbidden, "resource belongs to another user")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrEmptyDigest     = NewError(ErrCodeInvalidDigestInput, "digest requires at least one task")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// StoreUnavailable marks a failed read of notification data.
func StoreUnavailable(err error) *Error {
	return WrapError(ErrCodeStoreUnavailable, "store unavailable", err)
}

// TransportFailure marks a failed outbound message.
func TransportFailure(err error) *Error {
	return WrapError(ErrCodeTransportFailure, "transport failure", err)
}

// TransportTimeout marks an outbound message that did not complete in time.
func TransportTimeout(err error) *Error {
	return WrapError(ErrCodeTransportTimeout, "transport timeout", err)
}

// IsTransportFailure reports failures and timeouts alike; a timeout is a kind of failure.
func IsTransportFailure(err error) bool {
	return IsDomainError(err, ErrCodeTransportFailure) || IsDomainError(err, ErrCodeTransportTimeout)
}
