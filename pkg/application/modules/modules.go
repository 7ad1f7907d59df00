// Package modules holds the long-running units the application starts inside
// a shared errgroup.
package modules

import "dealwatch/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
