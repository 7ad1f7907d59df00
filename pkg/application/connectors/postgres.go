package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // golang postgres driver
	"github.com/jmoiron/sqlx"

	"dealwatch/pkg/logx"
)

// Postgres opens one pool on first use.
type Postgres struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	once sync.Once
	db   *sqlx.DB
	err  error
}

func (p *Postgres) Client(ctx context.Context) (*sqlx.DB, error) {
	p.once.Do(func() {
		db, err := sqlx.ConnectContext(ctx, "pgx", p.DSN)
		if err != nil {
			p.err = fmt.Errorf("sqlx.ConnectContext: %w", err)
			return
		}

		db.SetMaxOpenConns(p.MaxOpenConns)
		db.SetMaxIdleConns(p.MaxIdleConns)
		db.SetConnMaxLifetime(p.ConnMaxLifetime)

		p.db = db

		logger(ctx).Info("postgres connected", slog.String("database", p.database()))
	})

	return p.db, p.err
}

func (p *Postgres) Close(ctx context.Context) {
	if p.db == nil {
		return
	}

	if err := p.db.Close(); err != nil {
		logger(ctx).Error("postgres close", logx.Error(err))
		return
	}

	logger(ctx).Info("postgres disconnected", slog.String("database", p.database()))
}

// database is the DSN path, so credentials never reach the logs.
func (p *Postgres) database() string {
	u, err := url.Parse(p.DSN)
	if err != nil {
		return "unknown"
	}

	return u.Path
}
