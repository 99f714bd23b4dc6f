package comments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for comments.
type Repository interface {
	Create(ctx context.Context, c Comment) (Comment, error)
	GetByID(ctx context.Context, id int64) (Comment, error)
	Update(ctx context.Context, c Comment) (Comment, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const commentColumns = `id, work_session_id, company_id, content, created_at, updated_at`

// Create inserts a new comment. The unique index on work_session_id turns a
// concurrent double-create into ErrAlreadyCommented.
func (r *PGRepository) Create(ctx context.Context, c Comment) (Comment, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO comments (work_session_id, company_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING `+commentColumns,
		c.WorkSessionID, c.CompanyID, c.Content, now,
	)
	created, err := scanComment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Comment{}, ErrAlreadyCommented
		}
		return Comment{}, fmt.Errorf("comments: create: %w", err)
	}
	return created, nil
}

// GetByID fetches a comment by id.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (Comment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("comments: get: %w", err)
	}
	return c, nil
}

// Update persists new content. The owning identifiers stay untouched.
func (r *PGRepository) Update(ctx context.Context, c Comment) (Comment, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1 RETURNING `+commentColumns,
		c.ID, c.Content, time.Now().UTC(),
	)
	updated, err := scanComment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("comments: update: %w", err)
	}
	return updated, nil
}

// Delete removes a comment.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("comments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.WorkSessionID, &c.CompanyID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Comment{}, err
	}
	return c, nil
}

var _ Repository = (*PGRepository)(nil)
