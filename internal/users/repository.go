package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worktrack/worktrack/internal/authz"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	MarkEmailVerified(ctx context.Context, id int64) error
	SetStudentCompany(ctx context.Context, studentID, companyID int64) error
	ListStudentsForCompany(ctx context.Context, companyID int64) ([]User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, name, password_hash, role, email_verified, company_id, totp_secret, created_at, updated_at`

// Create inserts a new account. A duplicate email maps to ErrEmailTaken.
func (r *PGRepository) Create(ctx context.Context, user User) (User, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, password_hash, role, email_verified, company_id, totp_secret, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING `+userColumns,
		user.Email, user.Name, user.PasswordHash, user.Role.String(),
		user.EmailVerified, user.CompanyID, nullableString(user.TOTPSecret), now,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return created, nil
}

// GetByID fetches a user by id.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get by id: %w", err)
	}
	return user, nil
}

// GetByEmail fetches a user by email.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get by email: %w", err)
	}
	return user, nil
}

// MarkEmailVerified flips the verification flag.
func (r *PGRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("users: mark verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStudentCompany records the affiliation. An existing affiliation is
// overwritten; see the connect flow notes in DESIGN.md.
func (r *PGRepository) SetStudentCompany(ctx context.Context, studentID, companyID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET company_id = $2, updated_at = $3 WHERE id = $1 AND role = 'student'`,
		studentID, companyID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("users: set company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStudentsForCompany returns students affiliated with a company.
func (r *PGRepository) ListStudentsForCompany(ctx context.Context, companyID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = 'student' AND company_id = $1 ORDER BY id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("users: list students: %w", err)
	}
	defer rows.Close()

	var students []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan student: %w", err)
		}
		students = append(students, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list students: %w", err)
	}
	return students, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user       User
		role       string
		totpSecret *string
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
		&user.EmailVerified, &user.CompanyID, &totpSecret,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return User{}, err
	}
	user.Role = parsed
	if totpSecret != nil {
		user.TOTPSecret = *totpSecret
	}
	return user, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ Repository = (*PGRepository)(nil)
