package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type DealStatus string

const (
	DealStatusSearching DealStatus = "searching"
	DealStatusEntered   DealStatus = "entered"
	DealStatusCompleted DealStatus = "completed"
)

// Deal is one observation of a platform deal taken from a snapshot.
type Deal struct {
	ID        string     `json:"id"`
	BotID     string     `json:"bot_id,omitempty"`
	BotName   string     `json:"bot_name,omitempty"`
	Pair      string     `json:"pair"`
	Status    DealStatus `json:"status"`
	RawStatus string     `json:"raw_status,omitempty"` // platform status, for display only

	// StepCount is the number of completed safety orders.
	StepCount int `json:"step_count"`

	EntryPrice    decimal.Decimal `json:"entry_price"`
	BoughtVolume  decimal.Decimal `json:"bought_volume"`
	ProfitAbs     decimal.Decimal `json:"profit_abs"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`

	CreatedAt time.Time `json:"created_at"`
	ClosedAt  time.Time `json:"closed_at,omitzero"`
}

// Duration is the time between opening and closing; zero while either end is
// unknown.
func (d Deal) Duration() time.Duration {
	if d.CreatedAt.IsZero() || d.ClosedAt.IsZero() || d.ClosedAt.Before(d.CreatedAt) {
		return 0
	}

	return d.ClosedAt.Sub(d.CreatedAt)
}

// Scope selects which slice of deals a snapshot covers.
type Scope struct {
	Name  string
	Since time.Time // finished deals closed before Since are skipped
}

const (
	ScopeActive   = "active"
	ScopeFinished = "finished"
)

func ActiveScope() Scope {
	return Scope{Name: ScopeActive}
}

func FinishedScope(since time.Time) Scope {
	return Scope{Name: ScopeFinished, Since: since}
}
