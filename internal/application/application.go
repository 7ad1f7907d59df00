package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dealwatch/internal/config"
	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/internal/domain/service/stats"
	"dealwatch/internal/domain/service/tracker"
	"dealwatch/internal/infrastructure/ipify"
	"dealwatch/internal/infrastructure/notifier"
	"dealwatch/internal/infrastructure/persistence"
	"dealwatch/internal/infrastructure/statestore"
	"dealwatch/internal/infrastructure/telegram"
	"dealwatch/internal/infrastructure/threecommas"
	"dealwatch/internal/server"
	"dealwatch/internal/transport/bot"
	"dealwatch/internal/transport/bot/handler"
	"dealwatch/internal/worker"
	"dealwatch/pkg/application/connectors"
	"dealwatch/pkg/application/modules"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/logx"
	"dealwatch/pkg/probe"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const readHeaderTimeout = 5 * time.Second

// Run wires every component and blocks until ctx is cancelled or a module
// fails.
func Run(ctx context.Context, cfg config.Config) error { //nolint:funlen
	ctx = contextx.WithLogger(ctx, logger(ctx).With(
		slog.String(logx.FieldAppName, cfg.App.Name),
		slog.String(logx.FieldAppVersion, cfg.App.Version),
	))

	startedAt := time.Now()

	store, closeStore, err := newStateStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("newStateStore: %w", err)
	}
	defer closeStore(ctx)

	client := threecommas.NewClient(threecommas.Options{
		BaseURL:   cfg.ThreeCommas.BaseURL,
		APIKey:    cfg.ThreeCommas.APIKey,
		APISecret: cfg.ThreeCommas.Secret(),
		PageLimit: cfg.ThreeCommas.PageLimit,
		BotID:     cfg.ThreeCommas.BotID,
		AccountID: cfg.ThreeCommas.AccountID,
		Timeout:   cfg.ThreeCommas.Timeout,
		LogLevel:  config.Log{Level: cfg.ThreeCommas.LogLevel}.LogLevel(),
	})

	aggregator := stats.NewAggregator(client).WithTTL(cfg.Stats.TTL)

	dealTracker := tracker.NewTracker(store, aggregator).
		WithColdEntries(cfg.Tracker.AnnounceColdEntries)

	alertBot, err := notifier.NewTelegramBot(cfg.Bot.Token, cfg.Bot.ChatID)
	if err != nil {
		return fmt.Errorf("notifier.NewTelegramBot: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	poller := worker.NewDealPoller(client, dealTracker, alertBot).
		WithScopes(scopes(cfg.Poller.Scopes, startedAt)...).
		WithInterval(cfg.Poller.Interval).
		WithRetention(cfg.Storage.Retention).
		WithMetrics(worker.NewMetrics(registry))

	if evicter, ok := store.(worker.Evicter); ok && cfg.Storage.Retention > 0 {
		poller.WithEvicter(evicter)
	}

	ipify.NewClient(cfg.App.IPifyURL, nil).LogExternalIP(ctx)
	alertBot.Announce(ctx, fmt.Sprintf("🚀 %s %s started", cfg.App.Name, cfg.App.Version))

	g, gctx := errgroup.WithContext(ctx)

	if err = poller.Start(gctx); err != nil {
		return fmt.Errorf("poller.Start: %w", err)
	}
	defer poller.Stop()

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Servers.ProbeAddr,
		Checks:        []probe.ReadinessCheck{poller.IsRunning},
	}.Run(gctx, g)

	if cfg.Servers.MetricsAddr != "" {
		modules.MetricServer{
			ListenAddress: cfg.Servers.MetricsAddr,
			Gatherer:      registry,
		}.Run(gctx, g)
	}

	if cfg.Servers.HTTPAddr != "" {
		srv := server.NewServer(server.NewStatusServer(poller, aggregator))

		modules.HTTPServer{ShutdownTimeout: cfg.Servers.ShutdownTimeout}.Run(gctx, g, &http.Server{
			Addr:              cfg.Servers.HTTPAddr,
			Handler:           srv.Handler(logx.NewSensitiveDataMasker(), cfg.Log.FieldMaxLen),
			ReadHeaderTimeout: readHeaderTimeout,
		})
	}

	commandBot := bot.New(
		alertBot.Bot(),
		handler.New(gctx, poller, aggregator),
		cfg.Bot.AdminID,
	)
	modules.BackgroundWorker{Name: "commandBot"}.Run(gctx, g, commandBot)

	if cfg.Relay.Enabled {
		relay, err := newRelay(cfg, alertBot)
		if err != nil {
			return fmt.Errorf("newRelay: %w", err)
		}

		modules.BackgroundWorker{Name: "relay"}.Run(gctx, g, nonFatal{name: "relay", runner: relay})
	}

	logger(ctx).Info("application started",
		slog.String("state-backend", cfg.Storage.Backend),
		slog.Any("scopes", cfg.Poller.Scopes),
		slog.Duration("interval", cfg.Poller.Interval),
	)

	if err = g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	logger(ctx).Info("application stopped")

	return nil
}

// scopes turns configured scope names into fetch scopes. The finished scope
// only covers deals closed after startedAt.
func scopes(names []string, startedAt time.Time) []entity.Scope {
	return lo.Map(names, func(name string, _ int) entity.Scope {
		if name == entity.ScopeFinished {
			return entity.FinishedScope(startedAt)
		}

		return entity.ActiveScope()
	})
}

func newStateStore(ctx context.Context, cfg config.Config) (tracker.StateStore, func(context.Context), error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rc := &connectors.Redis{
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}

		client, err := rc.Client(ctx)
		if err != nil {
			return nil, nil, domain.WrapError(err, errcodes.StoreError, "connect redis")
		}

		store := statestore.NewRedis(client, cfg.Storage.Retention).
			WithKeyPrefix(cfg.Redis.KeyPrefix)

		return store, rc.Close, nil

	case config.BackendPostgres:
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}

		db, err := pg.Client(ctx)
		if err != nil {
			return nil, nil, domain.WrapError(err, errcodes.StoreError, "connect postgres")
		}

		if err = persistence.Migrate(ctx, db); err != nil {
			pg.Close(ctx)
			return nil, nil, fmt.Errorf("persistence.Migrate: %w", err)
		}

		return persistence.NewDealStateRepository(db, cfg.Storage.Retention), pg.Close, nil

	default:
		return statestore.NewMemory(cfg.Storage.Retention), func(context.Context) {}, nil
	}
}

func newRelay(cfg config.Config, forwarder telegram.Forwarder) (*telegram.Relay, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("zapConfig.Build: %w", err)
	}

	client, err := telegram.NewClient(telegram.ClientOptions{
		AppID:       cfg.Relay.APIID,
		AppHash:     cfg.Relay.APIHash,
		Phone:       cfg.Relay.Phone,
		Password:    cfg.Relay.Password,
		SessionPath: cfg.Relay.SessionPath,
		Logger:      zapLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram.NewClient: %w", err)
	}

	return telegram.NewRelay(client, cfg.Relay.FromUsername, forwarder), nil
}

// nonFatal logs the runner's failure instead of stopping the application.
type nonFatal struct {
	name   string
	runner modules.Runner
}

func (n nonFatal) Run(ctx context.Context) error {
	if err := n.runner.Run(ctx); err != nil {
		logger(ctx).Error("worker failed", slog.String("worker", n.name), logx.Error(err))
	}

	return nil
}
