package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealwatch/internal/domain/entity"
	"dealwatch/internal/infrastructure/persistence"
	"dealwatch/pkg/dbtest"
)

func TestDealStateRepository(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	db := dbtest.Connect(t)
	rq.NoError(persistence.Migrate(ctx, db))
	rq.NoError(persistence.Migrate(ctx, db)) // applying twice is a no-op
	dbtest.Truncate(t, db, "deal_states")

	repo := persistence.NewDealStateRepository(db, time.Hour)

	_, found, err := repo.Get(ctx, "100")
	rq.NoError(err)
	rq.False(found)

	seen := time.Now().UTC().Add(-3 * time.Hour).Truncate(time.Microsecond)

	state := entity.DealState{
		Status:         entity.DealStatusEntered,
		StepCount:      1,
		EnteredEmitted: true,
		FirstSeenAt:    seen,
		UpdatedAt:      seen,
	}
	rq.NoError(repo.Upsert(ctx, "100", state))

	got, found, err := repo.Get(ctx, "100")
	rq.NoError(err)
	rq.True(found)
	rq.Equal(state.Status, got.Status)
	rq.Equal(1, got.StepCount)
	rq.True(got.CompletedAt.IsZero())

	state.Status = entity.DealStatusCompleted
	state.CompletedEmitted = true
	state.CompletedAt = seen
	rq.NoError(repo.Upsert(ctx, "100", state))

	rq.NoError(repo.Upsert(ctx, "200", entity.DealState{
		Status:      entity.DealStatusSearching,
		FirstSeenAt: seen,
		UpdatedAt:   seen,
	}))

	count, err := repo.Count(ctx)
	rq.NoError(err)
	rq.Equal(2, count)

	evicted, err := repo.Evict(ctx)
	rq.NoError(err)
	rq.Equal(1, evicted)

	_, found, err = repo.Get(ctx, "100")
	rq.NoError(err)
	rq.False(found)

	_, found, err = repo.Get(ctx, "200")
	rq.NoError(err)
	rq.True(found)
}
