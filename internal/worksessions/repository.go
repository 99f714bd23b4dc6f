package worksessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for work sessions.
type Repository interface {
	Create(ctx context.Context, ws WorkSession) (WorkSession, error)
	GetByID(ctx context.Context, id int64) (WorkSession, error)
	ListForStudent(ctx context.Context, studentID int64) ([]WorkSession, error)
	Update(ctx context.Context, ws WorkSession) (WorkSession, error)
	Delete(ctx context.Context, id int64) error
	MarkVerified(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const sessionColumns = `id, student_id, start_time, end_time, verified, description, created_at, updated_at`

// Create inserts a new work session.
func (r *PGRepository) Create(ctx context.Context, ws WorkSession) (WorkSession, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO work_sessions (student_id, start_time, end_time, verified, description, created_at, updated_at)
		 VALUES ($1, $2, $3, FALSE, $4, $5, $5)
		 RETURNING `+sessionColumns,
		ws.StudentID, ws.StartTime, ws.EndTime, ws.Description, now,
	)
	created, err := scanSession(row)
	if err != nil {
		return WorkSession{}, fmt.Errorf("worksessions: create: %w", err)
	}
	return created, nil
}

// GetByID fetches a work session by id.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (WorkSession, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM work_sessions WHERE id = $1`, id)
	ws, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkSession{}, ErrNotFound
		}
		return WorkSession{}, fmt.Errorf("worksessions: get: %w", err)
	}
	return ws, nil
}

// ListForStudent returns a student's sessions, newest first.
func (r *PGRepository) ListForStudent(ctx context.Context, studentID int64) ([]WorkSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM work_sessions WHERE student_id = $1 ORDER BY start_time DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("worksessions: list: %w", err)
	}
	defer rows.Close()

	var sessions []WorkSession
	for rows.Next() {
		ws, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("worksessions: scan: %w", err)
		}
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("worksessions: list: %w", err)
	}
	return sessions, nil
}

// Update persists mutable fields. student_id and verified are deliberately
// not touched here.
func (r *PGRepository) Update(ctx context.Context, ws WorkSession) (WorkSession, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE work_sessions
		 SET start_time = $2, end_time = $3, description = $4, updated_at = $5
		 WHERE id = $1
		 RETURNING `+sessionColumns,
		ws.ID, ws.StartTime, ws.EndTime, ws.Description, time.Now().UTC(),
	)
	updated, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorkSession{}, ErrNotFound
		}
		return WorkSession{}, fmt.Errorf("worksessions: update: %w", err)
	}
	return updated, nil
}

// Delete removes a work session.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("worksessions: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVerified flips the verified flag. The flag never reverts.
func (r *PGRepository) MarkVerified(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE work_sessions SET verified = TRUE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("worksessions: verify: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (WorkSession, error) {
	var ws WorkSession
	err := row.Scan(
		&ws.ID, &ws.StudentID, &ws.StartTime, &ws.EndTime,
		&ws.Verified, &ws.Description, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		return WorkSession{}, err
	}
	return ws, nil
}

var _ Repository = (*PGRepository)(nil)
