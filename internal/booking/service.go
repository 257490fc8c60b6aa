package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mentorhub/mentorhub/internal/availability"
	"github.com/mentorhub/mentorhub/internal/mentors"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// MentorDirectory exposes the mentor lookups and counters the orchestrator
// needs.
type MentorDirectory interface {
	Profile(ctx context.Context, userID string) (*mentors.Profile, error)
	RecordSession(ctx context.Context, mentorID string)
	RecordEarnings(ctx context.Context, mentorID string, amount float64)
}

// Locker serialises booking writes per mentor.
type Locker interface {
	Acquire(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key, token string) error
}

// Notifier emits outbound events. Emission failure never fails the
// triggering operation.
type Notifier interface {
	Send(ctx context.Context, n notifications.Notification) error
}

// Service is the booking orchestrator: it is the single place converting
// negative checker/resolver results into error kinds, and the only place
// logging internal failures for this flow.
type Service struct {
	repo     Repository
	resolver *Resolver
	mentors  MentorDirectory
	locker   Locker
	notifier Notifier
	audit    *shared.AuditLogger
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds Service instance. locker, notifier and audit may be
// nil in tests; the orchestrator degrades to the storage-level uniqueness
// backstop.
func NewService(repo Repository, resolver *Resolver, mentors MentorDirectory, locker Locker, notifier Notifier, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		mentors:  mentors,
		locker:   locker,
		notifier: notifier,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

const dateLayout = "2006-01-02"

// Create validates, prices and persists a new booking in pending state.
func (s *Service) Create(ctx context.Context, actor rbac.AccessContext, req CreateRequest) (*Session, error) {
	if !rbac.HasPermission(actor, rbac.PermSessionBook) {
		return nil, httpx.ErrForbidden
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, fieldErrors(err)
	}
	date, err := time.ParseInLocation(dateLayout, req.SessionDate, time.UTC)
	if err != nil {
		return nil, &httpx.FieldErrors{Fields: map[string]string{"session_date": "datetime"}}
	}
	if slotInPast(date, req.SessionTime) {
		return nil, &httpx.FieldErrors{Fields: map[string]string{"session_date": "must not be in the past"}}
	}

	profile, err := s.mentors.Profile(ctx, req.MentorID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, httpx.ErrNotFound
		}
		s.logger.Error("load mentor profile", slog.Any("error", err))
		return nil, err
	}
	if !profile.Bookable() {
		// Inactive or un-onboarded mentors are indistinguishable from
		// absent ones.
		return nil, httpx.ErrNotFound
	}

	unlock := s.lockMentor(ctx, req.MentorID)
	defer unlock()

	decision, err := s.resolver.CheckSlot(ctx, req.MentorID, date, req.SessionTime, Duration(req.Duration), "")
	if err != nil {
		s.logger.Error("conflict check", slog.Any("error", err))
		return nil, err
	}
	if !decision.Free {
		return nil, fmt.Errorf("%w: %s", httpx.ErrConflict, decision.Reason)
	}

	sess := Session{
		StudentID:     actor.UserID,
		MentorID:      req.MentorID,
		SessionDate:   date,
		SessionTime:   req.SessionTime,
		Duration:      Duration(req.Duration),
		Subject:       req.Subject,
		SessionType:   SessionType(req.SessionType),
		Message:       req.Message,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Amount:        Price(profile.HourlyRate, Duration(req.Duration)),
	}
	created, err := s.repo.Insert(ctx, sess)
	if err != nil {
		if !errors.Is(err, httpx.ErrConflict) {
			s.logger.Error("insert booking", slog.Any("error", err))
		}
		return nil, err
	}

	s.mentors.RecordSession(ctx, created.MentorID)
	s.recordAudit(ctx, actor.UserID, "booking.create", created.ID, map[string]any{"mentor_id": created.MentorID})
	s.notify(ctx, notifications.Notification{
		UserID:  created.MentorID,
		Type:    notifications.TypeBooking,
		Title:   "New session request",
		Message: fmt.Sprintf("New %s session requested for %s at %s (%s).", created.Subject, created.SessionDate.Format(dateLayout), created.SessionTime, notifications.FormatAmount(created.Amount)),
		Data:    map[string]any{"session_id": created.ID, "amount": created.Amount},
	})

	return &created, nil
}

// Get returns one session, visible only to its parties or session admins.
// Lack of visibility is reported as not-found to avoid leaking existence.
func (s *Service) Get(ctx context.Context, actor rbac.AccessContext, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rbac.HasPermission(actor, rbac.PermSessionViewAll) {
		return sess, nil
	}
	if rbac.HasPermission(actor, rbac.PermSessionViewOwn) &&
		(rbac.CanAccessOwnResource(actor, sess.StudentID) || rbac.CanAccessOwnResource(actor, sess.MentorID)) {
		return sess, nil
	}
	return nil, httpx.ErrNotFound
}

// List returns sessions visible to the actor: students see their own,
// mentors see theirs, admins see everything.
func (s *Service) List(ctx context.Context, actor rbac.AccessContext, filter ListFilter) ([]SessionWithParty, shared.Pagination, error) {
	switch actor.Role {
	case rbac.RoleStudent:
		if !rbac.HasPermission(actor, rbac.PermSessionViewOwn) {
			return nil, shared.Pagination{}, httpx.ErrForbidden
		}
		filter.StudentID = actor.UserID
		filter.MentorID = ""
	case rbac.RoleMentor:
		if !rbac.HasPermission(actor, rbac.PermSessionViewOwn) {
			return nil, shared.Pagination{}, httpx.ErrForbidden
		}
		filter.MentorID = actor.UserID
		filter.StudentID = ""
	case rbac.RoleAdmin, rbac.RoleSuperAdmin:
		if !rbac.HasPermission(actor, rbac.PermSessionViewAll) {
			return nil, shared.Pagination{}, httpx.ErrForbidden
		}
	default:
		return nil, shared.Pagination{}, httpx.ErrForbidden
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list bookings", slog.Any("error", err))
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Confirm applies the payment-verified event: pending→confirmed. Called by
// the payment webhook with an already-verified source, so there is no rbac
// check here. Idempotent: confirming a confirmed session is a no-op.
func (s *Service) Confirm(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status == StatusConfirmed {
		return sess, nil
	}
	if err := guardTransition(sess.Status, StatusConfirmed); err != nil {
		return nil, err
	}
	ok, err := s.repo.MarkConfirmed(ctx, id)
	if err != nil {
		s.logger.Error("confirm booking", slog.Any("error", err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot move session from %s to %s", httpx.ErrInvalidTransition, sess.Status, StatusConfirmed)
	}

	s.mentors.RecordEarnings(ctx, sess.MentorID, sess.Amount)
	s.notify(ctx, notifications.Notification{
		UserID:  sess.StudentID,
		Type:    notifications.TypePayment,
		Title:   "Session confirmed",
		Message: fmt.Sprintf("Your payment of %s was received; the session on %s at %s is confirmed.", notifications.FormatAmount(sess.Amount), sess.SessionDate.Format(dateLayout), sess.SessionTime),
		Data:    map[string]any{"session_id": sess.ID},
	})
	s.notify(ctx, notifications.Notification{
		UserID:  sess.MentorID,
		Type:    notifications.TypeSession,
		Title:   "Session confirmed",
		Message: fmt.Sprintf("The session on %s at %s is paid and confirmed.", sess.SessionDate.Format(dateLayout), sess.SessionTime),
		Data:    map[string]any{"session_id": sess.ID},
	})

	return s.repo.Get(ctx, id)
}

// RejectPayment applies the payment-failed event: the session stays
// pending with payment_status=rejected.
func (s *Service) RejectPayment(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusPending {
		return nil, fmt.Errorf("%w: payment events only apply to pending sessions, not %s", httpx.ErrInvalidTransition, sess.Status)
	}
	if _, err := s.repo.MarkPaymentRejected(ctx, id); err != nil {
		s.logger.Error("reject payment", slog.Any("error", err))
		return nil, err
	}
	s.notify(ctx, notifications.Notification{
		UserID:  sess.StudentID,
		Type:    notifications.TypePayment,
		Title:   "Payment failed",
		Message: "Your payment did not go through. The session is held as pending until you retry.",
		Data:    map[string]any{"session_id": sess.ID},
	})
	return s.repo.Get(ctx, id)
}

// Cancel moves a pending or confirmed session to cancelled. Allowed for
// the student owner, the mentor owner, or a session admin.
func (s *Service) Cancel(ctx context.Context, actor rbac.AccessContext, id, reason string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayCancel(actor, sess) {
		return nil, httpx.ErrForbidden
	}
	if err := guardTransition(sess.Status, StatusCancelled); err != nil {
		return nil, err
	}
	ok, err := s.repo.MarkCancelled(ctx, id)
	if err != nil {
		s.logger.Error("cancel booking", slog.Any("error", err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot move session from %s to %s", httpx.ErrInvalidTransition, sess.Status, StatusCancelled)
	}

	s.recordAudit(ctx, actor.UserID, "booking.cancel", id, map[string]any{"reason": reason})
	counterparty := sess.MentorID
	if actor.UserID == sess.MentorID {
		counterparty = sess.StudentID
	}
	s.notify(ctx, notifications.Notification{
		UserID:  counterparty,
		Type:    notifications.TypeSession,
		Title:   "Session cancelled",
		Message: fmt.Sprintf("The session on %s at %s was cancelled.", sess.SessionDate.Format(dateLayout), sess.SessionTime),
		Data:    map[string]any{"session_id": sess.ID, "reason": reason},
	})
	return s.repo.Get(ctx, id)
}

// Complete moves a confirmed session to completed. Allowed for the mentor
// owner or a session admin.
func (s *Service) Complete(ctx context.Context, actor rbac.AccessContext, id string) (*Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := rbac.HasPermission(actor, rbac.PermSessionManage) ||
		(rbac.CanAccessOwnResource(actor, sess.MentorID) && rbac.HasPermission(actor, rbac.PermSessionComplete))
	if !allowed {
		return nil, httpx.ErrForbidden
	}
	if err := guardTransition(sess.Status, StatusCompleted); err != nil {
		return nil, err
	}
	ok, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		s.logger.Error("complete booking", slog.Any("error", err))
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot move session from %s to %s", httpx.ErrInvalidTransition, sess.Status, StatusCompleted)
	}

	s.notify(ctx, notifications.Notification{
		UserID:  sess.StudentID,
		Type:    notifications.TypeSession,
		Title:   "Session completed",
		Message: "Your session was marked completed. You can now leave a review.",
		Data:    map[string]any{"session_id": sess.ID},
	})
	return s.repo.Get(ctx, id)
}

// Reschedule moves a non-terminal session to a new slot. The new slot is
// re-validated by the conflict resolver; the original date/time is kept.
func (s *Service) Reschedule(ctx context.Context, actor rbac.AccessContext, id string, req RescheduleRequest) (*Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fieldErrors(err)
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.mayReschedule(actor, sess) {
		return nil, httpx.ErrForbidden
	}
	if !canReschedule(sess.Status) {
		return nil, fmt.Errorf("%w: cannot reschedule a %s session", httpx.ErrInvalidTransition, sess.Status)
	}

	date, err := time.ParseInLocation(dateLayout, req.SessionDate, time.UTC)
	if err != nil {
		return nil, &httpx.FieldErrors{Fields: map[string]string{"session_date": "datetime"}}
	}
	if slotInPast(date, req.SessionTime) {
		return nil, &httpx.FieldErrors{Fields: map[string]string{"session_date": "must not be in the past"}}
	}

	unlock := s.lockMentor(ctx, sess.MentorID)
	defer unlock()

	decision, err := s.resolver.CheckSlot(ctx, sess.MentorID, date, req.SessionTime, sess.Duration, sess.ID)
	if err != nil {
		s.logger.Error("conflict check", slog.Any("error", err))
		return nil, err
	}
	if !decision.Free {
		return nil, fmt.Errorf("%w: %s", httpx.ErrConflict, decision.Reason)
	}

	ok, err := s.repo.Reschedule(ctx, id, date, req.SessionTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: cannot reschedule a %s session", httpx.ErrInvalidTransition, sess.Status)
	}

	s.recordAudit(ctx, actor.UserID, "booking.reschedule", id, map[string]any{
		"from": sess.SessionDate.Format(dateLayout) + " " + sess.SessionTime,
		"to":   req.SessionDate + " " + req.SessionTime,
	})
	counterparty := sess.MentorID
	if actor.UserID == sess.MentorID {
		counterparty = sess.StudentID
	}
	s.notify(ctx, notifications.Notification{
		UserID:  counterparty,
		Type:    notifications.TypeSession,
		Title:   "Session rescheduled",
		Message: fmt.Sprintf("The session moved to %s at %s and awaits confirmation again.", req.SessionDate, req.SessionTime),
		Data:    map[string]any{"session_id": sess.ID},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) mayCancel(actor rbac.AccessContext, sess *Session) bool {
	if rbac.HasPermission(actor, rbac.PermSessionManage) {
		return true
	}
	owner := rbac.CanAccessOwnResource(actor, sess.StudentID) || rbac.CanAccessOwnResource(actor, sess.MentorID)
	return owner && rbac.HasPermission(actor, rbac.PermSessionCancel)
}

func (s *Service) mayReschedule(actor rbac.AccessContext, sess *Session) bool {
	if rbac.HasPermission(actor, rbac.PermSessionManage) {
		return true
	}
	if rbac.CanAccessOwnResource(actor, sess.StudentID) && rbac.HasPermission(actor, rbac.PermSessionReschedule) {
		return true
	}
	return rbac.CanAccessOwnResource(actor, sess.MentorID) && rbac.HasPermission(actor, rbac.PermSessionManageStudents)
}

// lockMentor serialises the check-then-insert sequence per mentor. When
// redis is unavailable the storage unique index remains the backstop, so
// lock failures other than contention degrade to a warning.
func (s *Service) lockMentor(ctx context.Context, mentorID string) func() {
	if s.locker == nil {
		return func() {}
	}
	key := shared.MentorLockKey(mentorID)
	token, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			// Let the resolver and unique index decide; the competing
			// request may be for a different slot.
			return func() {}
		}
		s.logger.Warn("mentor lock", slog.Any("error", err))
		return func() {}
	}
	return func() {
		if err := s.locker.Release(ctx, key, token); err != nil {
			s.logger.Warn("mentor unlock", slog.Any("error", err))
		}
	}
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error("emit notification", slog.String("user_id", n.UserID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, sessionID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "session", EntityID: sessionID, Meta: meta})
	if err != nil {
		s.logger.Warn("audit booking", slog.Any("error", err))
	}
}

func slotInPast(date time.Time, clock string) bool {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return true
	}
	if !date.Equal(today) {
		return false
	}
	minutes, err := availability.ToMinutes(clock)
	if err != nil {
		return false
	}
	return minutes <= now.Hour()*60+now.Minute()
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
