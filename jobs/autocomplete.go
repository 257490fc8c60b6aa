package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SessionSweeper closes confirmed sessions whose date has passed.
type SessionSweeper interface {
	AutoCompleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewAutoCompleteHandler returns the handler for the nightly sweep. The
// cutoff is yesterday: a session is auto-completed one full day after its
// scheduled date, leaving mentors time to mark it done themselves.
func NewAutoCompleteHandler(sweeper SessionSweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := defaultJobMetrics.Track(TaskTypeAutoComplete)
		cutoff := time.Now().UTC().AddDate(0, 0, -1)
		n, err := sweeper.AutoCompleteBefore(ctx, cutoff)
		if err != nil {
			return tracker.End(err)
		}
		if logger != nil && n > 0 {
			logger.Info("auto-completed sessions", slog.Int64("count", n))
		}
		return tracker.End(nil)
	}
}
