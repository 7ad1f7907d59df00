package statestore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealwatch/internal/domain/entity"
	"dealwatch/internal/infrastructure/statestore"
)

func TestMemoryGetUpsert(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := statestore.NewMemory(0)

	_, found, err := store.Get(ctx, "1")
	rq.NoError(err)
	rq.False(found)

	state := entity.DealState{Status: entity.DealStatusEntered, StepCount: 2, EnteredEmitted: true}
	rq.NoError(store.Upsert(ctx, "1", state))

	got, found, err := store.Get(ctx, "1")
	rq.NoError(err)
	rq.True(found)
	rq.Equal(state, got)

	state.StepCount = 3
	rq.NoError(store.Upsert(ctx, "1", state))

	got, _, err = store.Get(ctx, "1")
	rq.NoError(err)
	rq.Equal(3, got.StepCount)

	count, err := store.Count(ctx)
	rq.NoError(err)
	rq.Equal(1, count)
}

func TestMemoryRetention(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := statestore.NewMemory(time.Hour).WithClock(func() time.Time { return now })

	completed := entity.DealState{
		Status:           entity.DealStatusCompleted,
		EnteredEmitted:   true,
		CompletedEmitted: true,
		CompletedAt:      now,
	}
	active := entity.DealState{Status: entity.DealStatusEntered, EnteredEmitted: true}

	rq.NoError(store.Upsert(ctx, "done", completed))
	rq.NoError(store.Upsert(ctx, "open", active))

	evicted, err := store.Evict(ctx)
	rq.NoError(err)
	rq.Zero(evicted)

	now = now.Add(2 * time.Hour)

	evicted, err = store.Evict(ctx)
	rq.NoError(err)
	rq.Equal(1, evicted)

	_, found, err := store.Get(ctx, "done")
	rq.NoError(err)
	rq.False(found)

	_, found, err = store.Get(ctx, "open")
	rq.NoError(err)
	rq.True(found)
}

func TestMemoryExpiredOnRead(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := statestore.NewMemory(time.Minute).WithClock(func() time.Time { return now })

	rq.NoError(store.Upsert(ctx, "x", entity.DealState{
		Status:           entity.DealStatusCompleted,
		CompletedEmitted: true,
		CompletedAt:      now,
	}))

	now = now.Add(time.Minute)

	_, found, err := store.Get(ctx, "x")
	rq.NoError(err)
	rq.False(found)

	count, err := store.Count(ctx)
	rq.NoError(err)
	rq.Zero(count)
}

func TestMemoryKeepsForeverWithoutRetention(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := statestore.NewMemory(0).WithClock(func() time.Time { return now })

	rq.NoError(store.Upsert(ctx, "x", entity.DealState{
		Status:           entity.DealStatusCompleted,
		CompletedEmitted: true,
		CompletedAt:      now,
	}))

	now = now.Add(365 * 24 * time.Hour)

	evicted, err := store.Evict(ctx)
	rq.NoError(err)
	rq.Zero(evicted)

	_, found, err := store.Get(ctx, "x")
	rq.NoError(err)
	rq.True(found)
}
