package booking

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

// Repository defines persistence operations for bookings.
type Repository interface {
	SlotReader
	Insert(ctx context.Context, sess Session) (Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, filter ListFilter) ([]SessionWithParty, int, error)
	MarkConfirmed(ctx context.Context, id string) (bool, error)
	MarkPaymentRejected(ctx context.Context, id string) (bool, error)
	MarkCancelled(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) (bool, error)
	Reschedule(ctx context.Context, id string, newDate time.Time, newTime string) (bool, error)
	AutoCompleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL. The partial unique
// index on (mentor_id, session_date, session_time) for non-terminal
// statuses is the storage-level backstop against double booking.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const sessionColumns = `id, student_id, mentor_id, session_date, session_time, duration,
	subject, session_type, COALESCE(message, ''), status, payment_status, amount,
	created_at, updated_at, confirmed_at, completed_at, cancelled_at,
	original_date, original_time`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.StudentID, &s.MentorID, &s.SessionDate, &s.SessionTime, &s.Duration,
		&s.Subject, &s.SessionType, &s.Message, &s.Status, &s.PaymentStatus, &s.Amount,
		&s.CreatedAt, &s.UpdatedAt, &s.ConfirmedAt, &s.CompletedAt, &s.CancelledAt,
		&s.OriginalDate, &s.OriginalTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Insert persists a new pending session.
func (r *PGRepository) Insert(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, student_id, mentor_id, session_date, session_time, duration,
			subject, session_type, message, status, payment_status, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $13)`,
		sess.ID, sess.StudentID, sess.MentorID, sess.SessionDate, sess.SessionTime, sess.Duration,
		sess.Subject, sess.SessionType, sess.Message, sess.Status, sess.PaymentStatus, sess.Amount, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race to another booking for the same slot.
			return Session{}, fmt.Errorf("%w: %s", httpx.ErrConflict, ReasonAlreadyBooked)
		}
		return Session{}, fmt.Errorf("booking: insert: %w", err)
	}
	return sess, nil
}

// Get fetches a session by id.
func (r *PGRepository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// ListForMentorOnDate returns the mentor's non-terminal sessions for one
// calendar date, feeding the conflict resolver.
func (r *PGRepository) ListForMentorOnDate(ctx context.Context, mentorID string, date time.Time) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE mentor_id = $1 AND session_date = $2 AND status IN ('pending', 'confirmed')
		ORDER BY session_time`, mentorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// List returns sessions joined with counter-party names, newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]SessionWithParty, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	argPos := 1

	addCond := func(cond string, val any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, val)
		argPos++
	}

	if filter.StudentID != "" {
		addCond("s.student_id = $%d", filter.StudentID)
	}
	if filter.MentorID != "" {
		addCond("s.mentor_id = $%d", filter.MentorID)
	}
	if filter.Status != "" {
		addCond("s.status = $%d", filter.Status)
	}
	if filter.DateFrom != nil {
		addCond("s.session_date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		addCond("s.session_date <= $%d", *filter.DateTo)
	}

	where := ""
	for i, c := range conditions {
		if i > 0 {
			where += " AND "
		}
		where += c
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sessions s WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limitArgs := append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT s.id, s.student_id, s.mentor_id, s.session_date, s.session_time, s.duration,
			s.subject, s.session_type, COALESCE(s.message, ''), s.status, s.payment_status, s.amount,
			s.created_at, s.updated_at, s.confirmed_at, s.completed_at, s.cancelled_at,
			s.original_date, s.original_time,
			stu.name, stu.email, men.name, men.email
		FROM sessions s
		JOIN users stu ON stu.id = s.student_id
		JOIN users men ON men.id = s.mentor_id
		WHERE %s
		ORDER BY s.created_at DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1), limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []SessionWithParty
	for rows.Next() {
		var sp SessionWithParty
		s := &sp.Session
		err := rows.Scan(&s.ID, &s.StudentID, &s.MentorID, &s.SessionDate, &s.SessionTime, &s.Duration,
			&s.Subject, &s.SessionType, &s.Message, &s.Status, &s.PaymentStatus, &s.Amount,
			&s.CreatedAt, &s.UpdatedAt, &s.ConfirmedAt, &s.CompletedAt, &s.CancelledAt,
			&s.OriginalDate, &s.OriginalTime,
			&sp.StudentName, &sp.StudentEmail, &sp.MentorName, &sp.MentorEmail)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, sp)
	}
	return result, total, rows.Err()
}

// MarkConfirmed moves pending→confirmed. The status precondition makes the
// write idempotent and safe to retry.
func (r *PGRepository) MarkConfirmed(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'confirmed', payment_status = 'paid', confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPaymentRejected records a failed payment; the session stays pending.
func (r *PGRepository) MarkPaymentRejected(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET payment_status = 'rejected', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCancelled moves pending/confirmed→cancelled.
func (r *PGRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted moves confirmed→completed.
func (r *PGRepository) MarkCompleted(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reschedule moves a non-terminal session to a new slot, re-entering
// pending and preserving the first original slot across repeated moves.
func (r *PGRepository) Reschedule(ctx context.Context, id string, newDate time.Time, newTime string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET original_date = COALESCE(original_date, session_date),
		    original_time = COALESCE(original_time, session_time),
		    session_date = $2,
		    session_time = $3,
		    status = 'pending',
		    confirmed_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`, id, newDate, newTime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, fmt.Errorf("%w: %s", httpx.ErrConflict, ReasonAlreadyBooked)
		}
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AutoCompleteBefore closes confirmed sessions whose date passed the
// cutoff. Used by the nightly sweep.
func (r *PGRepository) AutoCompleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions
		SET status = 'completed', completed_at = NOW(), updated_at = NOW()
		WHERE status = 'confirmed' AND session_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
