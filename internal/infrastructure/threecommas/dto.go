package threecommas

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"dealwatch/internal/domain/entity"
)

// terminalStatuses are platform statuses of deals that will not trade again.
var terminalStatuses = map[string]struct{}{ //nolint:gochecknoglobals
	"completed":          {},
	"stop_loss_finished": {},
	"panic_sold":         {},
	"cancelled":          {},
	"failed":             {},
	"liquidated":         {},
	"switched":           {},
}

type dealDTO struct {
	ID                  int64   `json:"id" validate:"required"`
	BotID               int64   `json:"bot_id"`
	BotName             string  `json:"bot_name"`
	Pair                string  `json:"pair" validate:"required"`
	Status              string  `json:"status" validate:"required"`
	Finished            bool    `json:"finished?"`
	CompletedSafetyOrds int     `json:"completed_safety_orders_count" validate:"gte=0"`
	BoughtVolume        string  `json:"bought_volume"`
	BoughtAveragePrice  string  `json:"bought_average_price"`
	BaseOrderAvgPrice   string  `json:"base_order_average_price"`
	FinalProfit         string  `json:"final_profit"`
	FinalProfitPercent  string  `json:"final_profit_percentage"`
	CreatedAt           string  `json:"created_at" validate:"required"`
	ClosedAt            *string `json:"closed_at"`
}

func (d dealDTO) toDomain() (entity.Deal, error) {
	volume, err := parseDecimal(d.BoughtVolume)
	if err != nil {
		return entity.Deal{}, fmt.Errorf("bought_volume: %w", err)
	}

	entryPrice, err := parseDecimal(d.BoughtAveragePrice)
	if err != nil {
		return entity.Deal{}, fmt.Errorf("bought_average_price: %w", err)
	}

	if entryPrice.IsZero() {
		if entryPrice, err = parseDecimal(d.BaseOrderAvgPrice); err != nil {
			return entity.Deal{}, fmt.Errorf("base_order_average_price: %w", err)
		}
	}

	profit, err := parseDecimal(d.FinalProfit)
	if err != nil {
		return entity.Deal{}, fmt.Errorf("final_profit: %w", err)
	}

	profitPercent, err := parseDecimal(d.FinalProfitPercent)
	if err != nil {
		return entity.Deal{}, fmt.Errorf("final_profit_percentage: %w", err)
	}

	createdAt, err := parseTime(d.CreatedAt)
	if err != nil {
		return entity.Deal{}, fmt.Errorf("created_at: %w", err)
	}

	var closedAt time.Time
	if d.ClosedAt != nil {
		if closedAt, err = parseTime(*d.ClosedAt); err != nil {
			return entity.Deal{}, fmt.Errorf("closed_at: %w", err)
		}
	}

	deal := entity.Deal{
		ID:            strconv.FormatInt(d.ID, 10),
		BotName:       d.BotName,
		Pair:          d.Pair,
		RawStatus:     d.Status,
		StepCount:     d.CompletedSafetyOrds,
		EntryPrice:    entryPrice,
		BoughtVolume:  volume,
		ProfitAbs:     profit,
		ProfitPercent: profitPercent,
		CreatedAt:     createdAt,
		ClosedAt:      closedAt,
	}

	if d.BotID != 0 {
		deal.BotID = strconv.FormatInt(d.BotID, 10)
	}

	deal.Status = lifecycleStatus(d.Status, d.Finished, volume)

	return deal, nil
}

func lifecycleStatus(raw string, finished bool, volume decimal.Decimal) entity.DealStatus {
	if _, ok := terminalStatuses[raw]; ok || finished {
		return entity.DealStatusCompleted
	}

	if volume.IsPositive() {
		return entity.DealStatusEntered
	}

	return entity.DealStatusSearching
}

type accountDTO struct {
	ID        int64  `json:"id" validate:"required"`
	Name      string `json:"name"`
	USDAmount string `json:"usd_amount"`
}

type errorDTO struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}

	return decimal.NewFromString(s)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, s)
}
