package server

import (
	"dealwatch/internal/domain/entity"
	"dealwatch/internal/worker"
	"dealwatch/pkg/rest"
)

func newRESTCycleReport(r worker.CycleReport) *rest.CycleReport {
	return &rest.CycleReport{
		ID:              r.ID,
		StartedAt:       r.StartedAt,
		DurationMs:      r.Duration.Milliseconds(),
		DealsSeen:       r.DealsSeen,
		EventsEmitted:   r.EventsEmitted,
		EventsDelivered: r.EventsDelivered,
		FetchErrors:     r.FetchErrors,
		SendErrors:      r.SendErrors,
		Evicted:         r.Evicted,
	}
}

func newRESTStats(s entity.BotStats) rest.Stats {
	return rest.Stats{
		CompletedDeals:       s.CompletedDeals,
		TotalProfit:          s.TotalProfit.String(),
		Balance:              s.Balance.String(),
		ROIPercent:           s.ROIPercent.String(),
		MonthlyReturnPercent: s.MonthlyReturnPercent.String(),
		AnnualReturnPercent:  s.AnnualReturnPercent.String(),
		ElapsedSeconds:       int64(s.Elapsed.Seconds()),
		ComputedAt:           s.ComputedAt,
	}
}
