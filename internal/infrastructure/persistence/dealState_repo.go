package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type DealStateRepository struct {
	db        *sqlx.DB
	retention time.Duration
	now       func() time.Time
}

// NewDealStateRepository keeps completed deal states for retention after
// completion; zero retention keeps them forever.
func NewDealStateRepository(db *sqlx.DB, retention time.Duration) *DealStateRepository {
	return &DealStateRepository{
		db:        db,
		retention: retention,
		now:       time.Now,
	}
}

// withTx runs fn inside a transaction.
func (r *DealStateRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.StoreError,
				"transaction failed",
			)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.StoreError, "failed to commit")
	}

	return nil
}

func (r *DealStateRepository) Get(ctx context.Context, dealID string) (entity.DealState, bool, error) {
	query := `
		SELECT deal_id, status, step_count, entered_emitted, completed_emitted,
		       first_seen_at, updated_at, completed_at
		FROM deal_states
		WHERE deal_id = $1`

	var schema dealStateSchema
	if err := r.db.GetContext(ctx, &schema, query, dealID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.DealState{}, false, nil
		}

		return entity.DealState{}, false, domain.WrapError(err, errcodes.StoreError, "failed to get deal state")
	}

	return schema.toDomain(), true, nil
}

func (r *DealStateRepository) Upsert(ctx context.Context, dealID string, state entity.DealState) error {
	query := `
		INSERT INTO deal_states (
			deal_id, status, step_count, entered_emitted, completed_emitted,
			first_seen_at, updated_at, completed_at
		) VALUES (
			:deal_id, :status, :step_count, :entered_emitted, :completed_emitted,
			:first_seen_at, :updated_at, :completed_at
		)
		ON CONFLICT (deal_id) DO UPDATE SET
			status            = EXCLUDED.status,
			step_count        = EXCLUDED.step_count,
			entered_emitted   = EXCLUDED.entered_emitted,
			completed_emitted = EXCLUDED.completed_emitted,
			updated_at        = EXCLUDED.updated_at,
			completed_at      = EXCLUDED.completed_at`

	if _, err := r.db.NamedExecContext(ctx, query, fromDealState(dealID, state)); err != nil {
		return domain.WrapError(err, errcodes.StoreError, "failed to upsert deal state")
	}

	return nil
}

// Evict deletes completed deal states older than retention.
func (r *DealStateRepository) Evict(ctx context.Context) (int, error) {
	if r.retention <= 0 {
		return 0, nil
	}

	cutoff := r.now().Add(-r.retention)

	var evicted []string

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			DELETE FROM deal_states
			WHERE completed_emitted AND completed_at <= $1
			RETURNING deal_id`

		if err := tx.SelectContext(ctx, &evicted, query, cutoff); err != nil {
			return domain.WrapError(err, errcodes.StoreError, "failed to evict deal states")
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(evicted) > 0 {
		logger(ctx).Info("deal states evicted", "count", len(evicted), "backend", "postgres")
	}

	return len(evicted), nil
}

// Count returns the number of stored deal states.
func (r *DealStateRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM deal_states`); err != nil {
		return 0, domain.WrapError(err, errcodes.StoreError, "failed to count deal states")
	}

	return count, nil
}
