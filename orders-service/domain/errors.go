package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies every failure the saga can produce
type ErrorKind string

const (
	KindValidationFailed           ErrorKind = "VALIDATION_FAILED"
	KindInvalidTransition          ErrorKind = "INVALID_TRANSITION"
	KindPreconditionFailed         ErrorKind = "PRECONDITION_FAILED"
	KindPermissionDenied           ErrorKind = "PERMISSION_DENIED"
	KindNotCancelable              ErrorKind = "NOT_CANCELABLE"
	KindInventoryUnavailable       ErrorKind = "INVENTORY_UNAVAILABLE"
	KindDuplicateEvent             ErrorKind = "DUPLICATE_EVENT"
	KindDuplicateKey               ErrorKind = "DUPLICATE_KEY"
	KindVersionConflict            ErrorKind = "VERSION_CONFLICT"
	KindOrderNotFound              ErrorKind = "ORDER_NOT_FOUND"
	KindTransientInfrastructure    ErrorKind = "TRANSIENT_INFRASTRUCTURE_FAILURE"
	KindPermanentDownstreamFailure ErrorKind = "PERMANENT_DOWNSTREAM_FAILURE"
)

// Retryable reports whether redelivering the same input can succeed later
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTransientInfrastructure, KindVersionConflict:
		return true
	default:
		return false
	}
}

// Error is the single error type crossing the domain boundary
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is matching by kind
var (
	ErrValidationFailed     = &Error{Kind: KindValidationFailed}
	ErrInvalidTransition    = &Error{Kind: KindInvalidTransition}
	ErrPreconditionFailed   = &Error{Kind: KindPreconditionFailed}
	ErrPermissionDenied     = &Error{Kind: KindPermissionDenied}
	ErrNotCancelable        = &Error{Kind: KindNotCancelable}
	ErrInventoryUnavailable = &Error{Kind: KindInventoryUnavailable}
	ErrDuplicateEvent       = &Error{Kind: KindDuplicateEvent}
	ErrDuplicateKey         = &Error{Kind: KindDuplicateKey}
	ErrVersionConflict      = &Error{Kind: KindVersionConflict}
	ErrOrderNotFound        = &Error{Kind: KindOrderNotFound}
	ErrTransient            = &Error{Kind: KindTransientInfrastructure}
	ErrPermanentDownstream  = &Error{Kind: KindPermanentDownstreamFailure}
)

// NewError creates a domain error of the given kind
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work through wrapping
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the error should lead to redelivery
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// KindOf extracts the kind of a domain error, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsRetryable reports whether err should be retried. Errors without a kind count as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	kind := KindOf(err)
	if kind == "" {
		return true
	}
	return kind.Retryable()
}
