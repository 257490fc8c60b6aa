// Package jobs defines the background task types and the asynq worker
// scaffolding around them.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mentorhub/mentorhub/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifySend delivers a persisted notification by email.
	TaskTypeNotifySend = "notify:send"
	// TaskTypeAutoComplete sweeps confirmed sessions whose date has passed.
	TaskTypeAutoComplete = "booking:autocomplete"
)

// NotifyPayload describes an email delivery for one notification row.
type NotifyPayload struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

// NewNotifyTask constructs an asynq task for notification delivery.
func NewNotifyTask(payload NotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifySend, data), nil
}

// NewAutoCompleteTask constructs the sweep task (no payload).
func NewAutoCompleteTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAutoComplete, nil)
}

// Mailer sends one rendered email.
type Mailer interface {
	Send(ctx context.Context, userID, subject, body string) error
}

// NewNotifyHandler returns the handler processing TaskTypeNotifySend.
func NewNotifyHandler(mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := defaultJobMetrics.Track(TaskTypeNotifySend)
		var payload NotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		if mailer == nil {
			if logger != nil {
				logger.Info("notify delivery skipped, no mailer",
					slog.String("notification_id", payload.NotificationID))
			}
			return tracker.End(nil)
		}
		return tracker.End(mailer.Send(ctx, payload.UserID, payload.Title, payload.Message))
	}
}
