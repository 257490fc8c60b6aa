package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mentorhub/mentorhub/internal/booking"
	"github.com/mentorhub/mentorhub/internal/notifications"
	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/rbac"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// SessionReader resolves the session a review refers to.
type SessionReader interface {
	Get(ctx context.Context, id string) (*booking.Session, error)
}

// RatingRecorder feeds accepted ratings into the mentor's aggregate.
type RatingRecorder interface {
	RecordRating(ctx context.Context, mentorID string, rating int)
}

// Notifier emits outbound events. Emission failure never fails the
// triggering operation.
type Notifier interface {
	Send(ctx context.Context, n notifications.Notification) error
}

// Service implements review business rules.
type Service struct {
	repo     Repository
	sessions SessionReader
	ratings  RatingRecorder
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo Repository, sessions SessionReader, ratings RatingRecorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		ratings:  ratings,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest is the validated payload for posting a review.
type CreateRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// UpdateRequest edits an existing review.
type UpdateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// RespondRequest carries the mentor's reply.
type RespondRequest struct {
	Response string `json:"response" validate:"required,max=2000"`
}

// Create posts a review for a completed session owned by the actor.
func (s *Service) Create(ctx context.Context, actor rbac.AccessContext, req CreateRequest) (*Review, error) {
	if !rbac.HasPermission(actor, rbac.PermReviewCreate) {
		return nil, httpx.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fieldErrors(err)
	}

	sess, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !rbac.CanAccessOwnResource(actor, sess.StudentID) {
		return nil, httpx.ErrNotFound
	}
	if sess.Status != booking.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed sessions can be reviewed", httpx.ErrConflict)
	}

	created, err := s.repo.Insert(ctx, Review{
		SessionID: sess.ID,
		StudentID: sess.StudentID,
		MentorID:  sess.MentorID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		if !errors.Is(err, httpx.ErrConflict) {
			s.logger.Error("insert review", slog.Any("error", err))
		}
		return nil, err
	}

	s.ratings.RecordRating(ctx, sess.MentorID, created.Rating)
	s.notify(ctx, notifications.Notification{
		UserID:  sess.MentorID,
		Type:    notifications.TypeReview,
		Title:   "New review",
		Message: fmt.Sprintf("You received a %d-star review.", created.Rating),
		Data:    map[string]any{"review_id": created.ID, "session_id": sess.ID},
	})
	return &created, nil
}

// ForSession returns the review left on one session. Only the session's
// parties and review admins see it; everyone else gets NotFound so the
// session's existence does not leak.
func (s *Service) ForSession(ctx context.Context, actor rbac.AccessContext, sessionID string) (*Review, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	party := rbac.CanAccessOwnResource(actor, sess.StudentID) || rbac.CanAccessOwnResource(actor, sess.MentorID)
	if !party && !rbac.HasPermission(actor, rbac.PermReviewManage) {
		return nil, httpx.ErrNotFound
	}
	return s.repo.GetBySession(ctx, sessionID)
}

// ListForMentor returns a mentor's reviews, newest first.
func (s *Service) ListForMentor(ctx context.Context, mentorID string, page shared.Pagination) ([]ReviewWithAuthor, shared.Pagination, error) {
	page = shared.NewPagination(page.Page, page.PerPage, 0)
	items, total, err := s.repo.ListForMentor(ctx, mentorID, page.PerPage, page.Offset())
	if err != nil {
		s.logger.Error("list reviews", slog.Any("error", err))
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// Update edits a review. The owner may edit within the edit window;
// review admins may edit at any time.
func (s *Service) Update(ctx context.Context, actor rbac.AccessContext, id string, req UpdateRequest) (*Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fieldErrors(err)
	}
	rev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rbac.HasPermission(actor, rbac.PermReviewManage) {
		if !rbac.CanAccessOwnResource(actor, rev.StudentID) || !rbac.HasPermission(actor, rbac.PermReviewEditOwn) {
			return nil, httpx.ErrForbidden
		}
		if !rev.EditableAt(s.now()) {
			return nil, fmt.Errorf("%w: the edit window has closed", httpx.ErrConflict)
		}
	}
	if err := s.repo.Update(ctx, id, req.Rating, req.Comment); err != nil {
		s.logger.Error("update review", slog.Any("error", err))
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a review. The owner may delete within the delete window;
// review admins may delete at any time.
func (s *Service) Delete(ctx context.Context, actor rbac.AccessContext, id string) error {
	rev, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(actor, rbac.PermReviewManage) {
		if !rbac.CanAccessOwnResource(actor, rev.StudentID) || !rbac.HasPermission(actor, rbac.PermReviewDeleteOwn) {
			return httpx.ErrForbidden
		}
		if !rev.DeletableAt(s.now()) {
			return fmt.Errorf("%w: the delete window has closed", httpx.ErrConflict)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete review", slog.Any("error", err))
		return err
	}
	return nil
}

// Respond records the mentor's public reply to a review on their profile.
func (s *Service) Respond(ctx context.Context, actor rbac.AccessContext, id string, req RespondRequest) (*Review, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fieldErrors(err)
	}
	rev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := rbac.HasPermission(actor, rbac.PermReviewManage) ||
		(rbac.CanAccessOwnResource(actor, rev.MentorID) && rbac.HasPermission(actor, rbac.PermReviewRespond))
	if !allowed {
		return nil, httpx.ErrForbidden
	}
	if err := s.repo.SetResponse(ctx, id, req.Response); err != nil {
		s.logger.Error("respond to review", slog.Any("error", err))
		return nil, err
	}

	s.notify(ctx, notifications.Notification{
		UserID:  rev.StudentID,
		Type:    notifications.TypeReview,
		Title:   "Mentor replied to your review",
		Message: "Your mentor responded to your review.",
		Data:    map[string]any{"review_id": rev.ID},
	})
	return s.repo.Get(ctx, id)
}

func (s *Service) notify(ctx context.Context, n notifications.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error("emit notification", slog.String("user_id", n.UserID), slog.Any("error", err))
	}
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
