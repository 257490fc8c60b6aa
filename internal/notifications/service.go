package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mentorhub/mentorhub/jobs"
)

// Enqueuer submits delivery tasks to the background queue.
type Enqueuer interface {
	EnqueueNotify(ctx context.Context, payload jobs.NotifyPayload) error
}

// Service persists notifications and queues their delivery. Delivery
// failure is non-fatal to the operation that triggered the notification;
// callers treat Send errors as log-only.
type Service struct {
	repo   Repository
	queue  Enqueuer
	logger *slog.Logger
}

// NewService builds Service instance. queue may be nil when the worker is
// not deployed; notifications are then persisted only.
func NewService(repo Repository, queue Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, queue: queue, logger: logger}
}

// Send persists the notification and enqueues delivery.
func (s *Service) Send(ctx context.Context, n Notification) error {
	saved, err := s.repo.Insert(ctx, n)
	if err != nil {
		return fmt.Errorf("notifications: persist: %w", err)
	}
	if s.queue == nil {
		return nil
	}
	err = s.queue.EnqueueNotify(ctx, jobs.NotifyPayload{
		NotificationID: saved.ID,
		UserID:         saved.UserID,
		Title:          saved.Title,
		Message:        saved.Message,
	})
	if err != nil {
		// The persisted row is the source of truth; queue hiccups only
		// delay delivery.
		if s.logger != nil {
			s.logger.Warn("enqueue notification", slog.String("id", saved.ID), slog.Any("error", err))
		}
	}
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

// MarkRead stamps one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}
