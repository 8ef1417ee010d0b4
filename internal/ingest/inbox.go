package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/expense-tracker/internal/async"
)

// Enqueuer accepts discovered files; *async.Queue satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}

// RunInbox watches cfg.Roots and enqueues every settled image until ctx is
// done. Watcher errors are logged and do not stop the loop.
func RunInbox(ctx context.Context, cfg WatchConfig, q Enqueuer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	paths, errs, err := StartWatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			if err := q.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now()}); err != nil {
				if errors.Is(err, async.ErrClosed) || ctx.Err() != nil {
					return nil
				}
				logger.Warn("inbox.enqueue.failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("inbox.watch.error", "error", err)
		}
	}
}
