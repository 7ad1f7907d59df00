package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BotStats summarizes the performance of the bot over all finished deals.
type BotStats struct {
	CompletedDeals       int             `json:"completed_deals"`
	TotalProfit          decimal.Decimal `json:"total_profit"`
	Balance              decimal.Decimal `json:"balance"`
	ROIPercent           decimal.Decimal `json:"roi_percent"`
	MonthlyReturnPercent decimal.Decimal `json:"monthly_return_percent"`
	AnnualReturnPercent  decimal.Decimal `json:"annual_return_percent"`
	Elapsed              time.Duration   `json:"elapsed"`
	ComputedAt           time.Time       `json:"computed_at"`
}
