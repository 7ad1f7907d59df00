package persistence

import (
	"database/sql"
	"time"

	"dealwatch/internal/domain/entity"
)

// dealStateSchema maps a deal_states row.
type dealStateSchema struct {
	DealID           string       `db:"deal_id"`
	Status           string       `db:"status"`
	StepCount        int          `db:"step_count"`
	EnteredEmitted   bool         `db:"entered_emitted"`
	CompletedEmitted bool         `db:"completed_emitted"`
	FirstSeenAt      time.Time    `db:"first_seen_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
	CompletedAt      sql.NullTime `db:"completed_at"`
}

func fromDealState(dealID string, s entity.DealState) dealStateSchema {
	return dealStateSchema{
		DealID:           dealID,
		Status:           string(s.Status),
		StepCount:        s.StepCount,
		EnteredEmitted:   s.EnteredEmitted,
		CompletedEmitted: s.CompletedEmitted,
		FirstSeenAt:      s.FirstSeenAt,
		UpdatedAt:        s.UpdatedAt,
		CompletedAt:      sql.NullTime{Time: s.CompletedAt, Valid: !s.CompletedAt.IsZero()},
	}
}

func (s dealStateSchema) toDomain() entity.DealState {
	state := entity.DealState{
		Status:           entity.DealStatus(s.Status),
		StepCount:        s.StepCount,
		EnteredEmitted:   s.EnteredEmitted,
		CompletedEmitted: s.CompletedEmitted,
		FirstSeenAt:      s.FirstSeenAt,
		UpdatedAt:        s.UpdatedAt,
	}

	if s.CompletedAt.Valid {
		state.CompletedAt = s.CompletedAt.Time
	}

	return state
}
