package entity

import "time"

// DealState is what the tracker remembers about a deal between cycles.
// The zero value is the cold state of a deal never seen before.
type DealState struct {
	Status           DealStatus `json:"status" db:"status"`
	StepCount        int        `json:"step_count" db:"step_count"`
	EnteredEmitted   bool       `json:"entered_emitted" db:"entered_emitted"`
	CompletedEmitted bool       `json:"completed_emitted" db:"completed_emitted"`
	FirstSeenAt      time.Time  `json:"first_seen_at" db:"first_seen_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt      time.Time  `json:"completed_at,omitzero" db:"completed_at"`
}

func (s DealState) IsCold() bool {
	return s.Status == ""
}
