package errcodes

import "git.appkode.ru/pub/go/failure"

const (
	InternalServerError failure.ErrorCode = "InternalServerError"
	TimeoutExceeded     failure.ErrorCode = "TimeoutExceeded"
	Forbidden           failure.ErrorCode = "Forbidden"
	ValidationError     failure.ErrorCode = "ValidationError"
	NotFound            failure.ErrorCode = "NotFound"

	// Platform and channel failures.
	TransportError failure.ErrorCode = "TransportError" // network or HTTP failure
	AuthError      failure.ErrorCode = "AuthError"      // credentials or signature rejected
	DataShapeError failure.ErrorCode = "DataShapeError" // unexpected response shape

	ConfigError failure.ErrorCode = "ConfigError"
	StoreError  failure.ErrorCode = "StoreError"
)
