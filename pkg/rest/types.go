package rest

import "time"

// Status describes the poll loop.
type Status struct {
	Running    bool         `json:"running"`
	State      string       `json:"state"`
	Interval   string       `json:"interval"`
	LastReport *CycleReport `json:"lastReport,omitempty"`
}

type CycleReport struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"startedAt"`
	DurationMs      int64     `json:"durationMs"`
	DealsSeen       int       `json:"dealsSeen"`
	EventsEmitted   int       `json:"eventsEmitted"`
	EventsDelivered int       `json:"eventsDelivered"`
	FetchErrors     int       `json:"fetchErrors"`
	SendErrors      int       `json:"sendErrors"`
	Evicted         int       `json:"evicted"`
}

// Stats holds performance figures. Money and percentages are decimal strings.
type Stats struct {
	CompletedDeals       int       `json:"completedDeals"`
	TotalProfit          string    `json:"totalProfit"`
	Balance              string    `json:"balance"`
	ROIPercent           string    `json:"roiPercent"`
	MonthlyReturnPercent string    `json:"monthlyReturnPercent"`
	AnnualReturnPercent  string    `json:"annualReturnPercent"`
	ElapsedSeconds       int64     `json:"elapsedSeconds"`
	ComputedAt           time.Time `json:"computedAt"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SupportID string    `json:"supportId"`
}

type ErrorCode string
