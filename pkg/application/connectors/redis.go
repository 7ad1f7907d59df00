package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"dealwatch/pkg/logx"
)

// Redis opens one client on first use and pings it.
type Redis struct {
	Username           string
	Password           string
	Address            string
	DatabaseNumber     int
	PoolSize           int
	MinIdleConnections int
	MaxIdleConnections int

	once   sync.Once
	client *redis.Client
	err    error
}

func (r *Redis) Client(ctx context.Context) (*redis.Client, error) {
	r.once.Do(func() {
		client := redis.NewClient(&redis.Options{ //nolint:exhaustruct
			Network:      "tcp",
			Addr:         r.Address,
			Username:     r.Username,
			Password:     r.Password,
			DB:           r.DatabaseNumber,
			PoolSize:     r.PoolSize,
			MinIdleConns: r.MinIdleConnections,
			MaxIdleConns: r.MaxIdleConnections,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			r.err = fmt.Errorf("redis ping %s: %w", r.Address, err)

			return
		}

		r.client = client

		logger(ctx).Info("redis connected", r.attrs()...)
	})

	return r.client, r.err
}

// Close is a no-op when the client was never opened.
func (r *Redis) Close(ctx context.Context) {
	if r.client == nil {
		return
	}

	if err := r.client.Close(); err != nil {
		logger(ctx).Error("redis close", append(r.attrs(), logx.Error(err))...)
		return
	}

	logger(ctx).Info("redis disconnected", r.attrs()...)
}

func (r *Redis) attrs() []any {
	return []any{
		slog.String("address", r.Address),
		slog.Int("database", r.DatabaseNumber),
	}
}
