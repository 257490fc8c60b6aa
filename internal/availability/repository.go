package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
)

// Repository defines persistence operations for availability rules.
type Repository interface {
	UpsertRule(ctx context.Context, rule Rule) (Rule, error)
	ListRules(ctx context.Context, mentorID string) ([]Rule, error)
	RuleForDay(ctx context.Context, mentorID string, dayOfWeek int) (*Rule, error)
	DeactivateRule(ctx context.Context, mentorID, ruleID string) error
	AddException(ctx context.Context, exc Exception) (Exception, error)
	DeleteException(ctx context.Context, ruleID, exceptionID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// UpsertRule inserts or replaces the active rule for (mentor, day_of_week).
func (r *PGRepository) UpsertRule(ctx context.Context, rule Rule) (Rule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	// On conflict the row keeps its original id and created_at; RETURNING
	// hands them back so callers never see a phantom id.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (id, mentor_id, day_of_week, start_time, end_time, timezone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (mentor_id, day_of_week) WHERE is_active
		DO UPDATE SET start_time = EXCLUDED.start_time,
		              end_time   = EXCLUDED.end_time,
		              timezone   = EXCLUDED.timezone,
		              is_active  = EXCLUDED.is_active,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`,
		rule.ID, rule.MentorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.Timezone, rule.IsActive, now).
		Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Rule{}, httpx.ErrDuplicate
		}
		return Rule{}, fmt.Errorf("availability: upsert rule: %w", err)
	}
	return rule, nil
}

// ListRules returns all active rules for a mentor with exceptions attached.
func (r *PGRepository) ListRules(ctx context.Context, mentorID string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, mentor_id, day_of_week, start_time, end_time, timezone, is_active, created_at, updated_at
		FROM availability_rules
		WHERE mentor_id = $1 AND is_active
		ORDER BY day_of_week`, mentorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.MentorID, &rule.DayOfWeek, &rule.StartTime, &rule.EndTime, &rule.Timezone, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range rules {
		excs, err := r.listExceptions(ctx, rules[i].ID)
		if err != nil {
			return nil, err
		}
		rules[i].Exceptions = excs
	}
	return rules, nil
}

// RuleForDay fetches the active rule for one weekday, nil when absent.
func (r *PGRepository) RuleForDay(ctx context.Context, mentorID string, dayOfWeek int) (*Rule, error) {
	var rule Rule
	err := r.pool.QueryRow(ctx, `
		SELECT id, mentor_id, day_of_week, start_time, end_time, timezone, is_active, created_at, updated_at
		FROM availability_rules
		WHERE mentor_id = $1 AND day_of_week = $2 AND is_active`,
		mentorID, dayOfWeek).
		Scan(&rule.ID, &rule.MentorID, &rule.DayOfWeek, &rule.StartTime, &rule.EndTime, &rule.Timezone, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	excs, err := r.listExceptions(ctx, rule.ID)
	if err != nil {
		return nil, err
	}
	rule.Exceptions = excs
	return &rule, nil
}

// DeactivateRule soft-disables a rule.
func (r *PGRepository) DeactivateRule(ctx context.Context, mentorID, ruleID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_rules SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND mentor_id = $2`, ruleID, mentorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// AddException attaches a dated override to a rule.
func (r *PGRepository) AddException(ctx context.Context, exc Exception) (Exception, error) {
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_exceptions (id, rule_id, date, type, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))`,
		exc.ID, exc.RuleID, exc.Date, exc.Type, exc.StartTime, exc.EndTime, exc.Reason)
	if err != nil {
		return Exception{}, fmt.Errorf("availability: add exception: %w", err)
	}
	return exc, nil
}

// DeleteException removes a dated override.
func (r *PGRepository) DeleteException(ctx context.Context, ruleID, exceptionID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_exceptions WHERE id = $1 AND rule_id = $2`, exceptionID, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) listExceptions(ctx context.Context, ruleID string) ([]Exception, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, rule_id, date, type, COALESCE(start_time, ''), COALESCE(end_time, ''), COALESCE(reason, '')
		FROM availability_exceptions
		WHERE rule_id = $1
		ORDER BY date`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var excs []Exception
	for rows.Next() {
		var exc Exception
		if err := rows.Scan(&exc.ID, &exc.RuleID, &exc.Date, &exc.Type, &exc.StartTime, &exc.EndTime, &exc.Reason); err != nil {
			return nil, err
		}
		excs = append(excs, exc)
	}
	return excs, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
