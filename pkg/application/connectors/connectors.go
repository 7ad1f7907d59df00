// Package connectors lazily opens shared clients for external storage.
package connectors

import "dealwatch/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
