package modules

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner is anything that blocks until ctx is cancelled or it fails.
type Runner interface {
	Run(ctx context.Context) error
}

// BackgroundWorker runs a named Runner in the group. A worker that returns an
// error cancels the whole group.
type BackgroundWorker struct {
	Name string
}

func (b BackgroundWorker) Run(
	ctx context.Context,
	g *errgroup.Group,
	runner Runner,
) {
	g.Go(func() error {
		logger(ctx).Info("background worker started", slog.String("worker", b.Name))

		if err := runner.Run(ctx); err != nil {
			return fmt.Errorf("%s.Run: %w", b.Name, err)
		}

		logger(ctx).Info("background worker stopped", slog.String("worker", b.Name))

		return nil
	})
}
