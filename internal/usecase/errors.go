package usecase

import (
	"errors"
	"fmt"

	"aurora-agent/internal/repository"
)

type ErrorCode string

const (
	ErrorInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrorUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrorForbidden          ErrorCode = "FORBIDDEN"
	ErrorNotFound           ErrorCode = "NOT_FOUND"
	ErrorRateLimited        ErrorCode = "RATE_LIMITED"
	ErrorServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorUpstream           ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal           ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by every service. Reason is a stable snake_case token that
// is safe to show callers; Err carries the underlying cause for logs only.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

func invalid(reason string) *Error {
	return newError(ErrorInvalidInput, reason, nil)
}

func forbidden() *Error {
	return newError(ErrorForbidden, "access_denied", nil)
}

func notFound(reason string) *Error {
	return newError(ErrorNotFound, reason, nil)
}

// storeError reports a persistence failure. Keys the store rejects as unsafe
// are the caller's fault.
func storeError(reason string, err error) *Error {
	if errors.Is(err, repository.ErrInvalidKey) {
		return newError(ErrorInvalidInput, "invalid_id", err)
	}
	return newError(ErrorInternal, reason, err)
}
