// Package middlewarex holds the HTTP middlewares shared by the status API.
package middlewarex

import "dealwatch/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
