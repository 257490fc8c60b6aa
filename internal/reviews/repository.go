package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentorhub/mentorhub/internal/platform/httpx"
)

// Repository defines persistence operations for reviews.
type Repository interface {
	Insert(ctx context.Context, rev Review) (Review, error)
	Get(ctx context.Context, id string) (*Review, error)
	GetBySession(ctx context.Context, sessionID string) (*Review, error)
	ListForMentor(ctx context.Context, mentorID string, limit, offset int) ([]ReviewWithAuthor, int, error)
	Update(ctx context.Context, id string, rating int, comment string) error
	Delete(ctx context.Context, id string) error
	SetResponse(ctx context.Context, id, response string) error
}

// PGRepository implements Repository using PostgreSQL. The unique index on
// session_id enforces one review per session.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const reviewColumns = `id, session_id, student_id, mentor_id, rating, COALESCE(comment, ''),
	mentor_response, responded_at, created_at, updated_at`

func scanReview(row pgx.Row) (*Review, error) {
	var rev Review
	err := row.Scan(&rev.ID, &rev.SessionID, &rev.StudentID, &rev.MentorID, &rev.Rating, &rev.Comment,
		&rev.MentorResponse, &rev.RespondedAt, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &rev, nil
}

func (r *PGRepository) Insert(ctx context.Context, rev Review) (Review, error) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, session_id, student_id, mentor_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING `+reviewColumns,
		rev.ID, rev.SessionID, rev.StudentID, rev.MentorID, rev.Rating, rev.Comment)
	created, err := scanReview(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Review{}, fmt.Errorf("%w: session already reviewed", httpx.ErrConflict)
		}
		return Review{}, fmt.Errorf("reviews: insert: %w", err)
	}
	return *created, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (*Review, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	return scanReview(row)
}

func (r *PGRepository) GetBySession(ctx context.Context, sessionID string) (*Review, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE session_id = $1`, sessionID)
	return scanReview(row)
}

func (r *PGRepository) ListForMentor(ctx context.Context, mentorID string, limit, offset int) ([]ReviewWithAuthor, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE mentor_id = $1`, mentorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("reviews: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.session_id, r.student_id, r.mentor_id, r.rating, COALESCE(r.comment, ''),
			r.mentor_response, r.responded_at, r.created_at, r.updated_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.student_id
		WHERE r.mentor_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`, mentorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("reviews: list: %w", err)
	}
	defer rows.Close()

	var out []ReviewWithAuthor
	for rows.Next() {
		var rev ReviewWithAuthor
		err := rows.Scan(&rev.ID, &rev.SessionID, &rev.StudentID, &rev.MentorID, &rev.Rating, &rev.Comment,
			&rev.MentorResponse, &rev.RespondedAt, &rev.CreatedAt, &rev.UpdatedAt, &rev.StudentName)
		if err != nil {
			return nil, 0, fmt.Errorf("reviews: scan: %w", err)
		}
		out = append(out, rev)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, id string, rating int, comment string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews SET rating = $2, comment = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`, id, rating, comment)
	if err != nil {
		return fmt.Errorf("reviews: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reviews: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *PGRepository) SetResponse(ctx context.Context, id, response string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews SET mentor_response = $2, responded_at = now(), updated_at = now()
		WHERE id = $1`, id, response)
	if err != nil {
		return fmt.Errorf("reviews: respond: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
