package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mentorhub/mentorhub/internal/booking"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Deduper drops redelivered webhook events.
type Deduper interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// BookingLifecycle is the slice of the booking orchestrator payment events
// drive.
type BookingLifecycle interface {
	Confirm(ctx context.Context, id string) (*booking.Session, error)
	RejectPayment(ctx context.Context, id string) (*booking.Session, error)
}

// Service applies provider webhook events and serves payment history.
type Service struct {
	repo     Repository
	bookings BookingLifecycle
	deduper  Deduper
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, bookings BookingLifecycle, deduper Deduper, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		deduper:  deduper,
		validate: validator.New(),
		logger:   logger,
	}
}

// HandleWebhook applies one provider event. Redeliveries of an already
// processed event return without side effects. The caller has already
// authenticated the source.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if err := s.validate.Struct(event); err != nil {
		return fieldErrors(err)
	}
	if s.deduper != nil {
		if err := s.deduper.CheckAndInsert(ctx, event.EventID, "payments"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				s.logger.Info("webhook redelivery dropped", slog.String("event_id", event.EventID))
				return nil
			}
			return err
		}
	}

	sess, err := s.apply(ctx, event)
	if err != nil {
		// Release the key so the provider's retry can run the event again.
		if s.deduper != nil {
			if derr := s.deduper.Delete(ctx, event.EventID); derr != nil {
				s.logger.Error("release idempotency key", slog.String("event_id", event.EventID), slog.Any("error", derr))
			}
		}
		return err
	}

	_, err = s.repo.Insert(ctx, Payment{
		SessionID:   sess.ID,
		StudentID:   sess.StudentID,
		MentorID:    sess.MentorID,
		Amount:      event.Amount,
		Currency:    currencyOrDefault(event.Currency),
		Provider:    event.Provider,
		ProviderRef: event.ProviderRef,
		Status:      statusFor(event.Type),
	})
	if err != nil {
		// The lifecycle already moved; the missing history row is logged,
		// not replayed.
		s.logger.Error("record payment", slog.String("session_id", sess.ID), slog.Any("error", err))
	}
	return nil
}

func (s *Service) apply(ctx context.Context, event WebhookEvent) (*booking.Session, error) {
	switch event.Type {
	case "payment.succeeded":
		return s.bookings.Confirm(ctx, event.SessionID)
	case "payment.failed", "payment.cancelled":
		return s.bookings.RejectPayment(ctx, event.SessionID)
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", httpx.ErrValidation, event.Type)
	}
}

// ListForActor returns payment history. Payment admins see everything,
// everyone else sees the charges they took part in.
func (s *Service) ListForActor(ctx context.Context, actor rbac.AccessContext, page shared.Pagination) ([]Payment, shared.Pagination, error) {
	page = shared.NewPagination(page.Page, page.PerPage, 0)
	var (
		items []Payment
		total int
		err   error
	)
	switch {
	case rbac.HasPermission(actor, rbac.PermPaymentViewAll):
		items, total, err = s.repo.ListAll(ctx, page.PerPage, page.Offset())
	case rbac.HasPermission(actor, rbac.PermPaymentViewOwn):
		items, total, err = s.repo.ListForUser(ctx, actor.UserID, page.PerPage, page.Offset())
	default:
		return nil, shared.Pagination{}, httpx.ErrForbidden
	}
	if err != nil {
		s.logger.Error("list payments", slog.Any("error", err))
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func statusFor(eventType string) Status {
	switch eventType {
	case "payment.succeeded":
		return StatusSucceeded
	case "payment.cancelled":
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func currencyOrDefault(code string) string {
	if code == "" {
		return "USD"
	}
	return code
}

func fieldErrors(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return httpx.ErrValidation
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &httpx.FieldErrors{Fields: fields}
}
