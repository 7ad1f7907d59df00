package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"

	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const DefaultPollInterval = 20 * time.Second

type DealFetcher interface {
	FetchDeals(ctx context.Context, scope entity.Scope) ([]entity.Deal, error)
}

type EventProcessor interface {
	Process(ctx context.Context, deals []entity.Deal) []entity.Event
}

type Notifier interface {
	SendEvent(ctx context.Context, event entity.Event) error
}

// Evicter is implemented by state stores that drop old entries on request.
type Evicter interface {
	Evict(ctx context.Context) (int, error)
}

type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
)

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	ID              string        `json:"id"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	DealsSeen       int           `json:"deals_seen"`
	EventsEmitted   int           `json:"events_emitted"`
	EventsDelivered int           `json:"events_delivered"`
	FetchErrors     int           `json:"fetch_errors"`
	SendErrors      int           `json:"send_errors"`
	Evicted         int           `json:"evicted"`
}

// DealPoller runs poll cycles one after another: fetch each scope, diff it
// against stored state and deliver the resulting events in order.
type DealPoller struct {
	fetcher  DealFetcher
	tracker  EventProcessor
	notifier Notifier
	evicter  Evicter
	metrics  *Metrics
	scopes   []entity.Scope
	interval time.Duration
	// retention bounds how far back the finished scope reaches, so a deal
	// whose state has been evicted is never fetched again.
	retention time.Duration
	now       func() time.Time

	stateMu    sync.Mutex
	state      State
	lastReport CycleReport
	cycles     int

	// Control fields
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewDealPoller(
	fetcher DealFetcher,
	tracker EventProcessor,
	notifier Notifier,
) *DealPoller {
	return &DealPoller{
		fetcher:  fetcher,
		tracker:  tracker,
		notifier: notifier,
		metrics:  NewMetrics(nil),
		scopes:   []entity.Scope{entity.ActiveScope()},
		interval: DefaultPollInterval,
		now:      time.Now,
		state:    StateIdle,
	}
}

func (w *DealPoller) WithScopes(scopes ...entity.Scope) *DealPoller {
	w.scopes = scopes
	return w
}

func (w *DealPoller) WithInterval(interval time.Duration) *DealPoller {
	w.interval = interval
	return w
}

func (w *DealPoller) WithEvicter(evicter Evicter) *DealPoller {
	w.evicter = evicter
	return w
}

// WithRetention must match the state store's retention. A finished scope then
// never reaches further back than retention.
func (w *DealPoller) WithRetention(retention time.Duration) *DealPoller {
	w.retention = retention
	return w
}

func (w *DealPoller) WithClock(now func() time.Time) *DealPoller {
	w.now = now
	return w
}

func (w *DealPoller) WithMetrics(metrics *Metrics) *DealPoller {
	w.metrics = metrics
	return w
}

// Start runs the poll loop in the background until Stop is called or ctx is
// cancelled.
func (w *DealPoller) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("poller is already running")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		w.Run(pollCtx) //nolint:errcheck
	}()

	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
func (w *DealPoller) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *DealPoller) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.isRunning
}

// Run polls until ctx is cancelled. Cycles never overlap; the next one starts
// interval after the previous one finished.
func (w *DealPoller) Run(ctx context.Context) error {
	logger(ctx).Info("deal poller started",
		slog.Duration("interval", w.interval),
		slog.Int("scopes", len(w.scopes)),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("deal poller stopped")
			return nil
		case <-timer.C:
			// Stop takes effect between cycles; a started cycle delivers
			// every event it has already committed to the store.
			w.Cycle(context.WithoutCancel(ctx))
			timer.Reset(w.interval)
		}
	}
}

// Cycle performs one poll cycle. Fetch and delivery failures are contained:
// a failed scope is skipped and a failed send does not stop later sends.
func (w *DealPoller) Cycle(ctx context.Context) CycleReport {
	cycleID := xid.New().String()

	ctx = contextx.WithTraceID(ctx, contextx.TraceID(cycleID))
	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.String(logx.FieldCycleID, cycleID)))

	w.setState(StatePolling)
	defer w.setState(StateIdle)

	report := CycleReport{ID: cycleID, StartedAt: w.now()}

	for _, scope := range w.scopes {
		w.pollScope(ctx, w.window(scope, report.StartedAt), &report)
	}

	if w.evicter != nil {
		evicted, err := w.evicter.Evict(ctx)
		if err != nil {
			logger(ctx).Warn("deal state eviction failed", logx.Error(err))
		}

		report.Evicted = evicted
		w.metrics.evicted.Add(float64(evicted))
	}

	report.Duration = w.now().Sub(report.StartedAt)

	w.metrics.cycles.Inc()
	w.metrics.cycleDuration.Observe(report.Duration.Seconds())

	w.stateMu.Lock()
	w.lastReport = report
	w.cycles++
	w.stateMu.Unlock()

	logger(ctx).Debug("poll cycle finished",
		slog.Int("deals", report.DealsSeen),
		slog.Int("events", report.EventsEmitted),
		slog.Int("fetch-errors", report.FetchErrors),
		slog.Int("send-errors", report.SendErrors),
		slog.Int64(logx.FieldDurationMs, report.Duration.Milliseconds()),
	)

	return report
}

// window moves the start of the finished scope up to now-retention.
func (w *DealPoller) window(scope entity.Scope, now time.Time) entity.Scope {
	if scope.Name != entity.ScopeFinished || w.retention <= 0 {
		return scope
	}

	if floor := now.Add(-w.retention); floor.After(scope.Since) {
		scope.Since = floor
	}

	return scope
}

func (w *DealPoller) pollScope(ctx context.Context, scope entity.Scope, report *CycleReport) {
	deals, err := w.fetcher.FetchDeals(ctx, scope)
	if err != nil {
		report.FetchErrors++

		code, _ := domain.GetCode(err)
		w.metrics.fetchErrors.WithLabelValues(scope.Name, string(code)).Inc()

		level := slog.LevelError
		if domain.IsRetryable(err) {
			level = slog.LevelWarn
		}

		logger(ctx).Log(ctx, level, "fetch deals failed",
			slog.String(logx.FieldScope, scope.Name),
			logx.Error(err),
		)

		return
	}

	report.DealsSeen += len(deals)
	w.metrics.dealsSeen.WithLabelValues(scope.Name).Set(float64(len(deals)))

	events := w.tracker.Process(ctx, deals)
	report.EventsEmitted += len(events)

	for _, event := range events {
		w.metrics.events.WithLabelValues(string(event.Kind)).Inc()

		if err := w.notifier.SendEvent(ctx, event); err != nil {
			report.SendErrors++
			w.metrics.sendErrors.WithLabelValues(string(event.Kind)).Inc()

			logger(ctx).Error("notification not delivered",
				slog.String(logx.FieldDealID, event.Deal.ID),
				slog.String(logx.FieldEventKind, string(event.Kind)),
				logx.Error(err),
			)

			continue
		}

		report.EventsDelivered++
	}
}

func (w *DealPoller) setState(state State) {
	w.stateMu.Lock()
	w.state = state
	w.stateMu.Unlock()
}

func (w *DealPoller) State() State {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	return w.state
}

// LastReport returns the report of the last finished cycle and whether any
// cycle has finished yet.
func (w *DealPoller) LastReport() (CycleReport, bool) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	return w.lastReport, w.cycles > 0
}

func (w *DealPoller) Interval() time.Duration {
	return w.interval
}
