package mentors

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Service handles mentor profile business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Profile returns the mentor profile for a user id.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Directory lists bookable mentors for the public directory.
func (s *Service) Directory(ctx context.Context, page shared.Pagination) ([]Profile, shared.Pagination, error) {
	profiles, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return profiles, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// SaveProfile validates and stores a mentor's own profile edits.
func (s *Service) SaveProfile(ctx context.Context, profile Profile) error {
	if profile.HourlyRate < 0 {
		return fmt.Errorf("%w: hourly_rate must not be negative", httpx.ErrValidation)
	}
	if profile.Headline == "" {
		return fmt.Errorf("%w: headline is required", httpx.ErrValidation)
	}
	return s.repo.Upsert(ctx, profile)
}

// RecordSession bumps the mentor's session counter. Counter updates are
// side effects of the booking flow and never fail the triggering
// operation; failures are logged only.
func (s *Service) RecordSession(ctx context.Context, mentorID string) {
	if err := s.repo.IncrementSessions(ctx, mentorID); err != nil && s.logger != nil {
		s.logger.Error("record session counter", slog.String("mentor_id", mentorID), slog.Any("error", err))
	}
}

// RecordEarnings accumulates confirmed payment amounts.
func (s *Service) RecordEarnings(ctx context.Context, mentorID string, amount float64) {
	if err := s.repo.AddEarnings(ctx, mentorID, amount); err != nil && s.logger != nil {
		s.logger.Error("record earnings counter", slog.String("mentor_id", mentorID), slog.Any("error", err))
	}
}

// RecordRating folds a review grade into the mentor's average.
func (s *Service) RecordRating(ctx context.Context, mentorID string, rating int) {
	if err := s.repo.ApplyRating(ctx, mentorID, rating); err != nil && s.logger != nil {
		s.logger.Error("record rating", slog.String("mentor_id", mentorID), slog.Any("error", err))
	}
}
