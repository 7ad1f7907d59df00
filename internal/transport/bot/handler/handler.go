package handler

import (
	"context"
	"fmt"
	"time"

	"dealwatch/internal/domain/entity"
	"dealwatch/internal/infrastructure/notifier"
	"dealwatch/internal/transport/bot/view"
	"dealwatch/internal/worker"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Poller interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
	State() worker.State
	LastReport() (worker.CycleReport, bool)
	Interval() time.Duration
}

type StatsProvider interface {
	Compute(ctx context.Context) (entity.BotStats, error)
}

type Handler struct {
	// appCtx outlives single updates; /resume starts the poller on it.
	appCtx context.Context //nolint:containedctx
	poller Poller
	stats  StatsProvider
	now    func() time.Time
}

func New(appCtx context.Context, poller Poller, stats StatsProvider) *Handler {
	return &Handler{
		appCtx: appCtx,
		poller: poller,
		stats:  stats,
		now:    time.Now,
	}
}

func (h *Handler) statusText() string {
	report, ok := h.poller.LastReport()

	return view.Status(view.StatusData{
		Running:   h.poller.IsRunning(),
		State:     h.poller.State(),
		Interval:  h.poller.Interval(),
		Report:    report,
		HasReport: ok,
		Now:       h.now(),
	})
}

func (h *Handler) statsText(ctx context.Context) string {
	s, err := h.stats.Compute(ctx)
	if err != nil {
		logger(ctx).ErrorContext(ctx, "failed to compute stats", logx.Error(err))
		return fmt.Sprintf(view.StatsUnavailable, err)
	}

	return notifier.FormatStats(s)
}

func (h *Handler) pauseText() string {
	if !h.poller.IsRunning() {
		return view.PollerNotRunning
	}

	h.poller.Stop()

	return view.PollerPaused
}

func (h *Handler) resumeText() string {
	if h.poller.IsRunning() {
		return view.PollerAlreadyRunning
	}

	if err := h.poller.Start(h.appCtx); err != nil {
		return fmt.Sprintf(view.PollerResumeFailed, err)
	}

	return view.PollerResumed
}
