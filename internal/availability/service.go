package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
)

// cacheTTL keeps weekly schedules hot without letting stale windows linger
// past an edit for long.
const cacheTTL = 30 * time.Second

// Service handles availability business rules. Reads are deduplicated with
// singleflight and cached briefly in redis; writes invalidate the cache.
type Service struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds a Service instance. cache may be nil in tests.
func NewService(repo Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

func scheduleCacheKey(mentorID string) string {
	return "availability:mentor:" + mentorID
}

// SetRule validates and upserts the weekly window for one day.
func (s *Service) SetRule(ctx context.Context, rule Rule) (Rule, error) {
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return Rule{}, fmt.Errorf("%w: day_of_week must be 0-6", httpx.ErrValidation)
	}
	start, err := ToMinutes(rule.StartTime)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: start_time must be HH:MM", httpx.ErrValidation)
	}
	end, err := ToMinutes(rule.EndTime)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: end_time must be HH:MM", httpx.ErrValidation)
	}
	if start >= end {
		return Rule{}, fmt.Errorf("%w: start_time must precede end_time", httpx.ErrValidation)
	}
	if rule.Timezone == "" {
		rule.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(rule.Timezone); err != nil {
		return Rule{}, fmt.Errorf("%w: unknown timezone %q", httpx.ErrValidation, rule.Timezone)
	}
	rule.IsActive = true

	saved, err := s.repo.UpsertRule(ctx, rule)
	if err != nil {
		return Rule{}, err
	}
	s.invalidate(ctx, rule.MentorID)
	return saved, nil
}

// AddException validates and stores a dated override for a rule.
func (s *Service) AddException(ctx context.Context, mentorID string, exc Exception) (Exception, error) {
	if exc.Type != ExceptionUnavailable && exc.Type != ExceptionCustomHours {
		return Exception{}, fmt.Errorf("%w: exception type must be unavailable or custom_hours", httpx.ErrValidation)
	}
	if exc.Type == ExceptionCustomHours {
		start, err := ToMinutes(exc.StartTime)
		if err != nil {
			return Exception{}, fmt.Errorf("%w: custom hours need a start_time", httpx.ErrValidation)
		}
		end, err := ToMinutes(exc.EndTime)
		if err != nil {
			return Exception{}, fmt.Errorf("%w: custom hours need an end_time", httpx.ErrValidation)
		}
		if start >= end {
			return Exception{}, fmt.Errorf("%w: start_time must precede end_time", httpx.ErrValidation)
		}
	}
	if exc.Date.IsZero() {
		return Exception{}, fmt.Errorf("%w: date is required", httpx.ErrValidation)
	}

	// The rule must belong to the acting mentor.
	rules, err := s.repo.ListRules(ctx, mentorID)
	if err != nil {
		return Exception{}, err
	}
	owned := false
	for _, rule := range rules {
		if rule.ID == exc.RuleID {
			owned = true
			break
		}
	}
	if !owned {
		return Exception{}, httpx.ErrNotFound
	}

	saved, err := s.repo.AddException(ctx, exc)
	if err != nil {
		return Exception{}, err
	}
	s.invalidate(ctx, mentorID)
	return saved, nil
}

// WeeklySchedule returns all active rules for a mentor, cache-first.
// Concurrent cache misses for the same mentor collapse into one repository
// read.
func (s *Service) WeeklySchedule(ctx context.Context, mentorID string) ([]Rule, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, scheduleCacheKey(mentorID)).Bytes(); err == nil {
			var rules []Rule
			if err := json.Unmarshal(raw, &rules); err == nil {
				return rules, nil
			}
		}
	}

	v, err, _ := s.group.Do(mentorID, func() (any, error) {
		rules, err := s.repo.ListRules(ctx, mentorID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(rules); err == nil {
				if err := s.cache.Set(ctx, scheduleCacheKey(mentorID), raw, cacheTTL).Err(); err != nil && s.logger != nil {
					s.logger.Warn("availability cache set", slog.Any("error", err))
				}
			}
		}
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	rules, _ := v.([]Rule)
	return rules, nil
}

// RuleForDay returns the active rule governing one weekday, nil when the
// mentor does not accept sessions that day. Always reads through the
// repository: the conflict resolver depends on fresh exception data.
func (s *Service) RuleForDay(ctx context.Context, mentorID string, day time.Weekday) (*Rule, error) {
	return s.repo.RuleForDay(ctx, mentorID, int(day))
}

// RemoveException deletes a dated override. The rule must belong to the
// acting mentor.
func (s *Service) RemoveException(ctx context.Context, mentorID, ruleID, exceptionID string) error {
	rules, err := s.repo.ListRules(ctx, mentorID)
	if err != nil {
		return err
	}
	owned := false
	for _, rule := range rules {
		if rule.ID == ruleID {
			owned = true
			break
		}
	}
	if !owned {
		return httpx.ErrNotFound
	}
	if err := s.repo.DeleteException(ctx, ruleID, exceptionID); err != nil {
		return err
	}
	s.invalidate(ctx, mentorID)
	return nil
}

// DeactivateRule disables a weekly window.
func (s *Service) DeactivateRule(ctx context.Context, mentorID, ruleID string) error {
	if err := s.repo.DeactivateRule(ctx, mentorID, ruleID); err != nil {
		return err
	}
	s.invalidate(ctx, mentorID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, mentorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, scheduleCacheKey(mentorID)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("availability cache invalidate", slog.Any("error", err))
	}
}
