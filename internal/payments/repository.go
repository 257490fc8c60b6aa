package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for payments.
type Repository interface {
	Insert(ctx context.Context, p Payment) (Payment, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Payment, int, error)
	ListAll(ctx context.Context, limit, offset int) ([]Payment, int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const paymentColumns = `id, session_id, student_id, mentor_id, amount, currency, provider, provider_ref, status, created_at`

func (r *PGRepository) Insert(ctx context.Context, p Payment) (Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, session_id, student_id, mentor_id, amount, currency, provider, provider_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		p.ID, p.SessionID, p.StudentID, p.MentorID, p.Amount, p.Currency, p.Provider, p.ProviderRef, p.Status)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Payment{}, fmt.Errorf("payments: insert: %w", err)
	}
	return p, nil
}

func (r *PGRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Payment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE student_id = $1 OR mentor_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("payments: count: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE student_id = $1 OR mentor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("payments: list: %w", err)
	}
	return collect(rows, total)
}

func (r *PGRepository) ListAll(ctx context.Context, limit, offset int) ([]Payment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payments: count: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("payments: list: %w", err)
	}
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]Payment, int, error) {
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		err := rows.Scan(&p.ID, &p.SessionID, &p.StudentID, &p.MentorID, &p.Amount, &p.Currency,
			&p.Provider, &p.ProviderRef, &p.Status, &p.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("payments: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
