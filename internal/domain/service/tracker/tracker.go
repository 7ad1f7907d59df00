package tracker

import (
	"context"
	"log/slog"
	"time"

	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// StateStore keeps one DealState per deal identifier. Only the poll loop
// writes to it.
type StateStore interface {
	Get(ctx context.Context, dealID string) (entity.DealState, bool, error)
	Upsert(ctx context.Context, dealID string, state entity.DealState) error
}

type StatsProvider interface {
	Compute(ctx context.Context) (entity.BotStats, error)
}

// Tracker turns consecutive deal snapshots into lifecycle events.
type Tracker struct {
	store               StateStore
	stats               StatsProvider
	announceColdEntries bool
	now                 func() time.Time
}

func NewTracker(store StateStore, stats StatsProvider) *Tracker {
	return &Tracker{
		store:               store,
		stats:               stats,
		announceColdEntries: true,
		now:                 time.Now,
	}
}

// WithColdEntries controls whether a deal first seen already entered gets an
// "entered" event. When disabled its current step count is adopted silently.
func (t *Tracker) WithColdEntries(announce bool) *Tracker {
	t.announceColdEntries = announce
	return t
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Process diffs deals against the stored states and returns the events in
// snapshot order. A deal whose state cannot be read or written yields no
// events and keeps its previous state.
func (t *Tracker) Process(ctx context.Context, deals []entity.Deal) []entity.Event {
	var events []entity.Event

	for _, deal := range deals {
		dealEvents, err := t.processDeal(ctx, deal)
		if err != nil {
			logger(ctx).Error("deal skipped",
				slog.String(logx.FieldDealID, deal.ID),
				logx.Error(err),
			)

			continue
		}

		events = append(events, dealEvents...)
	}

	return events
}

func (t *Tracker) processDeal(ctx context.Context, deal entity.Deal) ([]entity.Event, error) {
	state, found, err := t.store.Get(ctx, deal.ID)
	if err != nil {
		return nil, err
	}

	now := t.now()

	if !found {
		state = entity.DealState{FirstSeenAt: now}
	}

	events, next := t.diff(deal, state, now)

	for i := range events {
		if events[i].Kind == entity.EventCompleted {
			events[i].Stats = t.enrich(ctx, deal)
		}
	}

	if err = t.store.Upsert(ctx, deal.ID, next); err != nil {
		return nil, err
	}

	for _, e := range events {
		logger(ctx).Info("deal event",
			slog.String(logx.FieldDealID, deal.ID),
			slog.String(logx.FieldPair, deal.Pair),
			slog.String(logx.FieldEventKind, string(e.Kind)),
			slog.Int(logx.FieldStep, e.Step),
		)
	}

	return events, nil
}

// diff applies the entry, step and completion checks in that order.
func (t *Tracker) diff(deal entity.Deal, state entity.DealState, now time.Time) ([]entity.Event, entity.DealState) {
	var events []entity.Event

	cold := state.IsCold()
	next := state

	if cold && deal.Status == entity.DealStatusEntered && !t.announceColdEntries {
		next.EnteredEmitted = true
		next.StepCount = deal.StepCount
	}

	// A completed deal seen for the first time never gets an entry event.
	enteredNow := deal.Status == entity.DealStatusEntered ||
		(deal.Status == entity.DealStatusCompleted && !cold && state.Status != entity.DealStatusCompleted)

	if enteredNow && !next.EnteredEmitted {
		events = append(events, entity.Event{Kind: entity.EventEntered, Deal: deal, At: now})
		next.EnteredEmitted = true
	}

	if deal.StepCount > next.StepCount {
		if deal.Status == entity.DealStatusEntered {
			events = append(events, entity.Event{Kind: entity.EventStep, Deal: deal, Step: deal.StepCount, At: now})
		}

		next.StepCount = deal.StepCount
	}

	if deal.Status == entity.DealStatusCompleted && !next.CompletedEmitted {
		events = append(events, entity.Event{Kind: entity.EventCompleted, Deal: deal, At: now})
		next.CompletedEmitted = true
		next.CompletedAt = now
	}

	next.Status = deal.Status
	next.UpdatedAt = now

	return events, next
}

func (t *Tracker) enrich(ctx context.Context, deal entity.Deal) *entity.BotStats {
	if t.stats == nil {
		return nil
	}

	stats, err := t.stats.Compute(ctx)
	if err != nil {
		logger(ctx).Warn("stats enrichment failed",
			slog.String(logx.FieldDealID, deal.ID),
			logx.Error(err),
		)

		return nil
	}

	return &stats
}
