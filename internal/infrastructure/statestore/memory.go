package statestore

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"dealwatch/internal/domain/entity"
)

const memoryCleanupInterval = 10 * time.Minute

// Memory is a process-local store. Entries of completed deals expire once
// retention has passed since completion.
type Memory struct {
	items     *cache.Cache
	retention time.Duration
	now       func() time.Time
}

func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		items:     cache.New(cache.NoExpiration, memoryCleanupInterval),
		retention: retention,
		now:       time.Now,
	}
}

func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, dealID string) (entity.DealState, bool, error) {
	v, ok := m.items.Get(dealID)
	if !ok {
		return entity.DealState{}, false, nil
	}

	state, ok := v.(entity.DealState)
	if !ok {
		return entity.DealState{}, false, nil
	}

	if ttlFor(state, m.retention, m.now()) < 0 {
		m.items.Delete(dealID)
		return entity.DealState{}, false, nil
	}

	return state, true, nil
}

func (m *Memory) Upsert(_ context.Context, dealID string, state entity.DealState) error {
	ttl := ttlFor(state, m.retention, m.now())

	switch {
	case ttl < 0:
		m.items.Delete(dealID)
	case ttl == 0:
		m.items.Set(dealID, state, cache.NoExpiration)
	default:
		m.items.Set(dealID, state, ttl)
	}

	return nil
}

// Evict drops every entry past retention and reports how many were removed.
func (m *Memory) Evict(ctx context.Context) (int, error) {
	if m.retention <= 0 {
		return 0, nil
	}

	now := m.now()
	evicted := 0

	for id, item := range m.items.Items() {
		state, ok := item.Object.(entity.DealState)
		if ok && ttlFor(state, m.retention, now) >= 0 {
			continue
		}

		m.items.Delete(id)
		evicted++
	}

	if evicted > 0 {
		logger(ctx).Info("deal states evicted", "count", evicted, "backend", "memory")
	}

	return evicted, nil
}

// Count returns the number of stored deal states.
func (m *Memory) Count(context.Context) (int, error) {
	return m.items.ItemCount(), nil
}
