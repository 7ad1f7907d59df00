package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"dealwatch/pkg/errcodes"
)

// AppError is a domain error carrying a machine readable code.
type AppError struct {
	Code    failure.ErrorCode
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// ErrorCode lets pkg/httpx/reply map the error onto an HTTP status.
func (e *AppError) ErrorCode() failure.ErrorCode {
	return e.Code
}

func NewError(code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps err with a domain code and message.
func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError

	return errors.As(err, &appErr)
}

// GetCode extracts the code of the outermost AppError in the chain.
func GetCode(err error) (failure.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}

	return "", false
}

// IsRetryable reports whether a failed fetch is skipped until the next poll
// cycle instead of stopping the poller. Auth failures count too: a revoked key
// may be restored while the service keeps running.
func IsRetryable(err error) bool {
	code, ok := GetCode(err)
	if !ok {
		return false
	}

	switch code {
	case errcodes.TransportError, errcodes.TimeoutExceeded, errcodes.AuthError:
		return true
	default:
		return false
	}
}
