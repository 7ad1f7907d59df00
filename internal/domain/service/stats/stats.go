package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
)

const (
	defaultTTL = 30 * time.Second
	cacheKey   = "bot-stats"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var (
	hundred   = decimal.NewFromInt(100) //nolint:gochecknoglobals
	daysMonth = decimal.NewFromInt(30)  //nolint:gochecknoglobals
	daysYear  = decimal.NewFromInt(365) //nolint:gochecknoglobals
)

// HistorySource is the platform's authoritative record of finished deals.
type HistorySource interface {
	FetchDeals(ctx context.Context, scope entity.Scope) ([]entity.Deal, error)
	AccountBalance(ctx context.Context) (decimal.Decimal, error)
}

// Aggregator computes BotStats from the platform history and keeps the
// result for a short while.
type Aggregator struct {
	source HistorySource
	cache  *cache.Cache
	group  singleflight.Group
	now    func() time.Time
}

func NewAggregator(source HistorySource) *Aggregator {
	return &Aggregator{
		source: source,
		cache:  cache.New(defaultTTL, 2*defaultTTL),
		now:    time.Now,
	}
}

// WithTTL sets how long computed stats are reused. A non-positive ttl
// disables caching.
func (a *Aggregator) WithTTL(ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		a.cache = nil
		return a
	}

	a.cache = cache.New(ttl, 2*ttl)

	return a
}

func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Compute returns cached stats when fresh, otherwise fetches them once for
// all concurrent callers.
func (a *Aggregator) Compute(ctx context.Context) (entity.BotStats, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(cacheKey); ok {
			return cached.(entity.BotStats), nil //nolint:forcetypeassert
		}
	}

	// The result is shared with every waiting caller, so the first caller
	// leaving must not cancel it.
	v, err, _ := a.group.Do(cacheKey, func() (any, error) {
		stats, err := a.compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		if a.cache != nil {
			a.cache.SetDefault(cacheKey, stats)
		}

		return stats, nil
	})
	if err != nil {
		return entity.BotStats{}, err
	}

	return v.(entity.BotStats), nil //nolint:forcetypeassert
}

// Invalidate drops the cached value.
func (a *Aggregator) Invalidate() {
	if a.cache != nil {
		a.cache.Delete(cacheKey)
	}
}

func (a *Aggregator) compute(ctx context.Context) (entity.BotStats, error) {
	var (
		deals   []entity.Deal
		balance decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		deals, err = a.source.FetchDeals(gctx, entity.FinishedScope(time.Time{}))
		if err != nil {
			return fmt.Errorf("source.FetchDeals: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		balance, err = a.source.AccountBalance(gctx)
		if err != nil {
			return fmt.Errorf("source.AccountBalance: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return entity.BotStats{}, err
	}

	stats := Summarize(deals, balance, a.now())

	logger(ctx).Debug("bot stats computed",
		"completed-deals", stats.CompletedDeals,
		"total-profit", stats.TotalProfit.String(),
		"roi-percent", stats.ROIPercent.String(),
	)

	return stats, nil
}

// Summarize derives BotStats from finished deals and the account balance.
func Summarize(deals []entity.Deal, balance decimal.Decimal, now time.Time) entity.BotStats {
	stats := entity.BotStats{
		CompletedDeals: len(deals),
		TotalProfit:    decimal.Zero,
		Balance:        balance,
		ComputedAt:     now,
	}

	var earliest time.Time

	for _, d := range deals {
		stats.TotalProfit = stats.TotalProfit.Add(d.ProfitAbs)

		if !d.CreatedAt.IsZero() && (earliest.IsZero() || d.CreatedAt.Before(earliest)) {
			earliest = d.CreatedAt
		}
	}

	if !earliest.IsZero() && now.After(earliest) {
		stats.Elapsed = now.Sub(earliest)
	}

	if balance.IsZero() {
		stats.ROIPercent = decimal.Zero
		stats.MonthlyReturnPercent = decimal.Zero
		stats.AnnualReturnPercent = decimal.Zero

		return stats
	}

	stats.ROIPercent = stats.TotalProfit.Div(balance).Mul(hundred).Round(2)

	days := decimal.NewFromFloat(stats.Elapsed.Hours() / 24)
	if days.LessThan(decimal.NewFromInt(1)) {
		days = decimal.NewFromInt(1)
	}

	perDay := stats.TotalProfit.Div(balance).Mul(hundred).Div(days)

	stats.MonthlyReturnPercent = perDay.Mul(daysMonth).Round(2)
	stats.AnnualReturnPercent = perDay.Mul(daysYear).Round(2)

	return stats
}
