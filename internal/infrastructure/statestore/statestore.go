// Package statestore keeps per-deal tracker state in memory or in redis.
package statestore

import (
	"time"

	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ttlFor returns how long state may still be kept. Zero means forever, a
// negative value means the entry has already outlived retention.
func ttlFor(state entity.DealState, retention time.Duration, now time.Time) time.Duration {
	if retention <= 0 || !state.CompletedEmitted || state.CompletedAt.IsZero() {
		return 0
	}

	ttl := state.CompletedAt.Add(retention).Sub(now)
	if ttl <= 0 {
		return -1
	}

	return ttl
}
