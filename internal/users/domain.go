// Package users manages accounts: registration, email verification, and the
// student-to-company affiliation used by the authorization core.
package users

import (
	"errors"
	"time"

	"github.com/worktrack/worktrack/internal/authz"
)

// User represents an account. CompanyID is set only for affiliated students;
// TOTPSecret only for companies.
type User struct {
	ID            int64
	Email         string
	Name          string
	PasswordHash  string
	Role          authz.Role
	EmailVerified bool
	CompanyID     *int64
	TOTPSecret    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CompanyRoster is a company together with its affiliated students.
type CompanyRoster struct {
	Company  User
	Students []User
}

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("users: email already registered")
	// ErrInvalidToken indicates an unknown or expired verification token.
	ErrInvalidToken = errors.New("users: invalid or expired token")
	// ErrAlreadyVerified indicates the email was verified earlier.
	ErrAlreadyVerified = errors.New("users: email already verified")
	// ErrInvalidTOTP indicates the supplied company code did not match.
	ErrInvalidTOTP = errors.New("users: invalid totp code")
	// ErrWrongRole indicates the target user has a different role than the
	// operation expects.
	ErrWrongRole = errors.New("users: wrong role")
)
