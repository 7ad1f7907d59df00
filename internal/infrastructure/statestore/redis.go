package statestore

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/errcodes"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const defaultKeyPrefix = "dealwatch:deal:"

// Redis keeps deal states as JSON strings. Retention is enforced with key TTLs.
type Redis struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

func NewRedis(client redis.UniversalClient, retention time.Duration) *Redis {
	return &Redis{
		client:    client,
		prefix:    defaultKeyPrefix,
		retention: retention,
		now:       time.Now,
	}
}

func (r *Redis) WithKeyPrefix(prefix string) *Redis {
	r.prefix = prefix
	return r
}

func (r *Redis) WithClock(now func() time.Time) *Redis {
	r.now = now
	return r
}

func (r *Redis) Get(ctx context.Context, dealID string) (entity.DealState, bool, error) {
	raw, err := r.client.Get(ctx, r.key(dealID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.DealState{}, false, nil
		}

		return entity.DealState{}, false, domain.WrapError(err, errcodes.StoreError, "redis get")
	}

	var state entity.DealState
	if err = json.Unmarshal(raw, &state); err != nil {
		return entity.DealState{}, false, domain.WrapError(err, errcodes.StoreError, "decode deal state")
	}

	return state, true, nil
}

func (r *Redis) Upsert(ctx context.Context, dealID string, state entity.DealState) error {
	ttl := ttlFor(state, r.retention, r.now())

	if ttl < 0 {
		if err := r.client.Del(ctx, r.key(dealID)).Err(); err != nil {
			return domain.WrapError(err, errcodes.StoreError, "redis del")
		}

		return nil
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreError, "encode deal state")
	}

	if err = r.client.Set(ctx, r.key(dealID), raw, ttl).Err(); err != nil {
		return domain.WrapError(err, errcodes.StoreError, "redis set")
	}

	return nil
}

func (r *Redis) key(dealID string) string {
	return r.prefix + dealID
}
