package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dealwatch/internal/domain/entity"
	"dealwatch/internal/worker"
	"dealwatch/pkg/httpx/reply"
	"dealwatch/pkg/rest"
)

type pollerStatus interface {
	IsRunning() bool
	State() worker.State
	LastReport() (worker.CycleReport, bool)
	Interval() time.Duration
}

type statsProvider interface {
	Compute(ctx context.Context) (entity.BotStats, error)
}

type StatusServer struct {
	poller pollerStatus
	stats  statsProvider
}

func NewStatusServer(poller pollerStatus, stats statsProvider) StatusServer {
	return StatusServer{
		poller: poller,
		stats:  stats,
	}
}

func (s StatusServer) getV1Status(w http.ResponseWriter, r *http.Request) error {
	response := rest.Status{
		Running:  s.poller.IsRunning(),
		State:    string(s.poller.State()),
		Interval: s.poller.Interval().String(),
	}

	if report, ok := s.poller.LastReport(); ok {
		response.LastReport = newRESTCycleReport(report)
	}

	reply.JSON(r.Context(), w, http.StatusOK, response)

	return nil
}

func (s StatusServer) getV1Stats(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	stats, err := s.stats.Compute(ctx)
	if err != nil {
		return fmt.Errorf("stats.Compute: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTStats(stats))

	return nil
}
