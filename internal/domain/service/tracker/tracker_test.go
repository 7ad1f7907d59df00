package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dealwatch/internal/domain/entity"
	"dealwatch/internal/domain/service/tracker"
	"dealwatch/pkg/tests"
)

var errStore = errors.New("store unavailable")

type fakeStore struct {
	states    map[string]entity.DealState
	getErr    error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]entity.DealState)}
}

func (s *fakeStore) Get(_ context.Context, dealID string) (entity.DealState, bool, error) {
	if s.getErr != nil {
		return entity.DealState{}, false, s.getErr
	}

	state, ok := s.states[dealID]

	return state, ok, nil
}

func (s *fakeStore) Upsert(_ context.Context, dealID string, state entity.DealState) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}

	s.states[dealID] = state

	return nil
}

type fakeStats struct {
	stats entity.BotStats
	err   error
	calls int
}

func (f *fakeStats) Compute(context.Context) (entity.BotStats, error) {
	f.calls++

	return f.stats, f.err
}

func kinds(events []entity.Event) []entity.EventKind {
	result := make([]entity.EventKind, 0, len(events))
	for _, e := range events {
		result = append(result, e.Kind)
	}

	return result
}

func deal(id string, status entity.DealStatus, step int) entity.Deal {
	return entity.Deal{ID: id, Pair: "USDT_BTC", Status: status, StepCount: step}
}

func TestTrackerFourSnapshotScenario(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	stats := &fakeStats{stats: entity.BotStats{
		CompletedDeals: 12,
		TotalProfit:    decimal.RequireFromString("42.5"),
		ROIPercent:     decimal.RequireFromString("4.25"),
	}}
	tr := tracker.NewTracker(newFakeStore(), stats)

	events := tr.Process(ctx, []entity.Deal{deal("X", entity.DealStatusSearching, 0)})
	rq.Empty(events)

	entered := deal("X", entity.DealStatusEntered, 0)
	entered.EntryPrice = decimal.NewFromInt(100)
	entered.BoughtVolume = decimal.NewFromInt(50)

	events = tr.Process(ctx, []entity.Deal{entered})
	rq.Len(events, 1)
	rq.Equal(entity.EventEntered, events[0].Kind)
	rq.True(decimal.NewFromInt(100).Equal(events[0].Deal.EntryPrice))
	rq.True(decimal.NewFromInt(50).Equal(events[0].Deal.BoughtVolume))

	stepped := deal("X", entity.DealStatusEntered, 1)
	stepped.BoughtVolume = decimal.NewFromInt(80)

	events = tr.Process(ctx, []entity.Deal{stepped})
	rq.Len(events, 1)
	rq.Equal(entity.EventStep, events[0].Kind)
	rq.Equal(1, events[0].Step)
	rq.True(decimal.NewFromInt(80).Equal(events[0].Deal.BoughtVolume))

	completed := deal("X", entity.DealStatusCompleted, 1)
	completed.ProfitPercent = decimal.RequireFromString("2.5")

	events = tr.Process(ctx, []entity.Deal{completed})
	rq.Len(events, 1)
	rq.Equal(entity.EventCompleted, events[0].Kind)
	rq.Equal("2.5", events[0].Deal.ProfitPercent.String())
	rq.NotNil(events[0].Stats)
	rq.Equal(12, events[0].Stats.CompletedDeals)
	rq.Equal(1, stats.calls)
}

func TestTrackerIdempotent(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

	snapshot := []entity.Deal{
		deal("A", entity.DealStatusEntered, 2),
		deal("B", entity.DealStatusCompleted, 0),
		deal("C", entity.DealStatusSearching, 0),
	}

	rq.NotEmpty(tr.Process(ctx, snapshot))
	rq.Empty(tr.Process(ctx, snapshot))
}

func TestTrackerStepMonotonicity(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

	var steps []int

	for _, step := range []int{0, 0, 1, 1, 3} {
		for _, e := range tr.Process(ctx, []entity.Deal{deal("D", entity.DealStatusEntered, step)}) {
			if e.Kind == entity.EventStep {
				steps = append(steps, e.Step)
			}
		}
	}

	rq.Equal([]int{1, 3}, steps)
}

func TestTrackerRandomStepSequences(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	random := tests.NewRandomizer()

	for range 50 {
		tr := tracker.NewTracker(newFakeStore(), &fakeStats{})
		sequence := random.StepSequence(20, 3)

		var (
			emitted   []int
			increases int
		)

		for i, step := range sequence {
			if i > 0 && step > sequence[i-1] {
				increases++
			}

			for _, e := range tr.Process(ctx, []entity.Deal{deal("R", entity.DealStatusEntered, step)}) {
				if e.Kind == entity.EventStep {
					emitted = append(emitted, e.Step)
				}
			}
		}

		rq.Len(emitted, increases, "sequence %v", sequence)

		for i := 1; i < len(emitted); i++ {
			rq.Greater(emitted[i], emitted[i-1])
		}
	}
}

func TestTrackerSearchingToCompletedJump(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

	rq.Empty(tr.Process(ctx, []entity.Deal{deal("J", entity.DealStatusSearching, 0)}))

	events := tr.Process(ctx, []entity.Deal{deal("J", entity.DealStatusCompleted, 4)})
	rq.Equal([]entity.EventKind{entity.EventEntered, entity.EventCompleted}, kinds(events))
}

func TestTrackerColdStart(t *testing.T) {
	ctx := context.Background()

	t.Run("completed at first sight", func(t *testing.T) {
		rq := require.New(t)

		tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

		events := tr.Process(ctx, []entity.Deal{deal("C", entity.DealStatusCompleted, 2)})
		rq.Equal([]entity.EventKind{entity.EventCompleted}, kinds(events))

		rq.Empty(tr.Process(ctx, []entity.Deal{deal("C", entity.DealStatusCompleted, 2)}))
	})

	t.Run("entered at first sight announced", func(t *testing.T) {
		rq := require.New(t)

		tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

		events := tr.Process(ctx, []entity.Deal{deal("E", entity.DealStatusEntered, 0)})
		rq.Equal([]entity.EventKind{entity.EventEntered}, kinds(events))
	})

	t.Run("entered at first sight silent", func(t *testing.T) {
		rq := require.New(t)

		tr := tracker.NewTracker(newFakeStore(), &fakeStats{}).WithColdEntries(false)

		rq.Empty(tr.Process(ctx, []entity.Deal{deal("S", entity.DealStatusEntered, 2)}))
		rq.Empty(tr.Process(ctx, []entity.Deal{deal("S", entity.DealStatusEntered, 2)}))

		events := tr.Process(ctx, []entity.Deal{deal("S", entity.DealStatusEntered, 3)})
		rq.Equal([]entity.EventKind{entity.EventStep}, kinds(events))
		rq.Equal(3, events[0].Step)
	})
}

func TestTrackerAtMostOnce(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	tr := tracker.NewTracker(newFakeStore(), &fakeStats{})

	sequence := []entity.Deal{
		deal("M", entity.DealStatusSearching, 0),
		deal("M", entity.DealStatusEntered, 0),
		deal("M", entity.DealStatusEntered, 1),
		deal("M", entity.DealStatusSearching, 1),
		deal("M", entity.DealStatusEntered, 1),
		deal("M", entity.DealStatusCompleted, 1),
		deal("M", entity.DealStatusEntered, 1),
		deal("M", entity.DealStatusCompleted, 1),
	}

	counts := make(map[entity.EventKind]int)

	for _, d := range sequence {
		for _, e := range tr.Process(ctx, []entity.Deal{d}) {
			counts[e.Kind]++
		}
	}

	rq.Equal(map[entity.EventKind]int{
		entity.EventEntered:   1,
		entity.EventStep:      1,
		entity.EventCompleted: 1,
	}, counts)
}

func TestTrackerSnapshotOrder(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newFakeStore()
	store.states["B"] = entity.DealState{Status: entity.DealStatusEntered, EnteredEmitted: true}

	tr := tracker.NewTracker(store, &fakeStats{})

	events := tr.Process(ctx, []entity.Deal{
		deal("A", entity.DealStatusEntered, 1),
		deal("B", entity.DealStatusCompleted, 0),
	})

	rq.Len(events, 3)
	rq.Equal("A", events[0].Deal.ID)
	rq.Equal(entity.EventEntered, events[0].Kind)
	rq.Equal("A", events[1].Deal.ID)
	rq.Equal(entity.EventStep, events[1].Kind)
	rq.Equal("B", events[2].Deal.ID)
	rq.Equal(entity.EventCompleted, events[2].Kind)
}

func TestTrackerStoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("get failure", func(t *testing.T) {
		rq := require.New(t)

		store := newFakeStore()
		tr := tracker.NewTracker(store, &fakeStats{})

		store.getErr = errStore
		rq.Empty(tr.Process(ctx, []entity.Deal{deal("G", entity.DealStatusEntered, 0)}))
		rq.Empty(store.states)

		store.getErr = nil
		rq.Equal([]entity.EventKind{entity.EventEntered}, kinds(tr.Process(ctx, []entity.Deal{deal("G", entity.DealStatusEntered, 0)})))
	})

	t.Run("upsert failure", func(t *testing.T) {
		rq := require.New(t)

		store := newFakeStore()
		store.states["U"] = entity.DealState{Status: entity.DealStatusEntered, EnteredEmitted: true}

		tr := tracker.NewTracker(store, &fakeStats{})

		store.upsertErr = errStore
		rq.Empty(tr.Process(ctx, []entity.Deal{deal("U", entity.DealStatusCompleted, 0)}))
		rq.False(store.states["U"].CompletedEmitted)

		store.upsertErr = nil
		rq.Equal([]entity.EventKind{entity.EventCompleted}, kinds(tr.Process(ctx, []entity.Deal{deal("U", entity.DealStatusCompleted, 0)})))
		rq.True(store.states["U"].CompletedEmitted)
	})
}

func TestTrackerStatsFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	tr := tracker.NewTracker(newFakeStore(), &fakeStats{err: errors.New("3commas down")})

	events := tr.Process(ctx, []entity.Deal{deal("F", entity.DealStatusCompleted, 0)})
	rq.Len(events, 1)
	rq.Equal(entity.EventCompleted, events[0].Kind)
	rq.Nil(events[0].Stats)
}

func TestTrackerPersistedState(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	tr := tracker.NewTracker(store, nil).WithClock(func() time.Time { return now })

	tr.Process(ctx, []entity.Deal{deal("P", entity.DealStatusEntered, 2)})

	rq.Equal(entity.DealState{
		Status:         entity.DealStatusEntered,
		StepCount:      2,
		EnteredEmitted: true,
		FirstSeenAt:    now,
		UpdatedAt:      now,
	}, store.states["P"])

	later := now.Add(time.Hour)
	tr.WithClock(func() time.Time { return later })

	events := tr.Process(ctx, []entity.Deal{deal("P", entity.DealStatusCompleted, 3)})
	rq.Equal([]entity.EventKind{entity.EventCompleted}, kinds(events))
	rq.Nil(events[0].Stats)

	rq.Equal(entity.DealState{
		Status:           entity.DealStatusCompleted,
		StepCount:        3,
		EnteredEmitted:   true,
		CompletedEmitted: true,
		FirstSeenAt:      now,
		UpdatedAt:        later,
		CompletedAt:      later,
	}, store.states["P"])
}
