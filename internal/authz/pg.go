package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLookups implements Lookups against PostgreSQL.
type PGLookups struct {
	pool *pgxpool.Pool
}

// NewPGLookups constructs lookups over the given pool.
func NewPGLookups(pool *pgxpool.Pool) *PGLookups {
	return &PGLookups{pool: pool}
}

// StudentCompanyID returns the affiliation of a student, nil when the student
// does not exist or has no company.
func (l *PGLookups) StudentCompanyID(ctx context.Context, studentID int64) (*int64, error) {
	var companyID *int64
	err := l.pool.QueryRow(ctx,
		`SELECT company_id FROM users WHERE id = $1 AND role = 'student'`,
		studentID,
	).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("authz: student company lookup: %w", err)
	}
	return companyID, nil
}

// WorkSessionStudentID returns the owner of a work session, nil when the work
// session has been deleted.
func (l *PGLookups) WorkSessionStudentID(ctx context.Context, workSessionID int64) (*int64, error) {
	var studentID int64
	err := l.pool.QueryRow(ctx,
		`SELECT student_id FROM work_sessions WHERE id = $1`,
		workSessionID,
	).Scan(&studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("authz: work session owner lookup: %w", err)
	}
	return &studentID, nil
}

var _ Lookups = (*PGLookups)(nil)
