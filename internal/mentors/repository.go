package mentors

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
	"github.com/mentorhub/mentorhub/internal/shared"
)

// Repository defines persistence operations for mentor profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	List(ctx context.Context, page shared.Pagination) ([]Profile, int, error)
	Upsert(ctx context.Context, profile Profile) error
	IncrementSessions(ctx context.Context, userID string) error
	AddEarnings(ctx context.Context, userID string, amount float64) error
	ApplyRating(ctx context.Context, userID string, rating int) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const profileColumns = `user_id, headline, bio, subjects, hourly_rate, timezone,
	onboarding_completed, is_active, total_sessions, total_earnings,
	average_rating, rating_count, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Headline, &p.Bio, &p.Subjects, &p.HourlyRate, &p.Timezone,
		&p.OnboardingCompleted, &p.IsActive, &p.TotalSessions, &p.TotalEarnings,
		&p.AverageRating, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Get fetches a profile by user id.
func (r *PGRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM mentor_profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// List returns active, onboarded mentors for the public directory.
func (r *PGRepository) List(ctx context.Context, page shared.Pagination) ([]Profile, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mentor_profiles WHERE is_active AND onboarding_completed`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM mentor_profiles
		WHERE is_active AND onboarding_completed
		ORDER BY average_rating DESC, total_sessions DESC
		LIMIT $1 OFFSET $2`, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, total, rows.Err()
}

// Upsert creates or replaces the profile fields a mentor edits themselves.
func (r *PGRepository) Upsert(ctx context.Context, profile Profile) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mentor_profiles (user_id, headline, bio, subjects, hourly_rate, timezone, onboarding_completed, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET headline = EXCLUDED.headline,
		              bio = EXCLUDED.bio,
		              subjects = EXCLUDED.subjects,
		              hourly_rate = EXCLUDED.hourly_rate,
		              timezone = EXCLUDED.timezone,
		              onboarding_completed = EXCLUDED.onboarding_completed,
		              updated_at = EXCLUDED.updated_at`,
		profile.UserID, profile.Headline, profile.Bio, profile.Subjects, profile.HourlyRate,
		profile.Timezone, profile.OnboardingCompleted, now)
	return err
}

// IncrementSessions bumps total_sessions after a booking is created.
func (r *PGRepository) IncrementSessions(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mentor_profiles SET total_sessions = total_sessions + 1, updated_at = NOW()
		WHERE user_id = $1`, userID)
	return err
}

// AddEarnings accumulates total_earnings after a payment is confirmed.
func (r *PGRepository) AddEarnings(ctx context.Context, userID string, amount float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mentor_profiles SET total_earnings = total_earnings + $2, updated_at = NOW()
		WHERE user_id = $1`, userID, amount)
	return err
}

// ApplyRating folds a new review rating into the running average.
func (r *PGRepository) ApplyRating(ctx context.Context, userID string, rating int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE mentor_profiles
		SET average_rating = (average_rating * rating_count + $2) / (rating_count + 1),
		    rating_count = rating_count + 1,
		    updated_at = NOW()
		WHERE user_id = $1`, userID, rating)
	return err
}

var _ Repository = (*PGRepository)(nil)
