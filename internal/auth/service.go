package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/worktrack/worktrack/internal/authz"
	"github.com/worktrack/worktrack/internal/users"
)

// UserDirectory is the account lookup the login flow needs.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// Service wraps authentication business rules and token handling.
type Service struct {
	directory UserDirectory
	secret    []byte
	ttl       time.Duration
}

// NewService constructs a new Service.
func NewService(directory UserDirectory, secret string, ttl time.Duration) *Service {
	return &Service{directory: directory, secret: []byte(secret), ttl: ttl}
}

// Authenticate validates email/password credentials. Accounts with an
// unverified email are rejected like wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !user.EmailVerified {
		return users.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs an HS256 JWT for the user.
func (s *Service) IssueToken(user users.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a JWT and derives the principal. Any defect in the
// credential maps to ErrInvalidPrincipal so callers answer 401, not 403.
func (s *Service) ParseToken(tokenString string) (authz.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return authz.Principal{}, fmt.Errorf("%w: %v", authz.ErrInvalidPrincipal, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return authz.Principal{}, fmt.Errorf("%w: unparseable subject %q", authz.ErrInvalidPrincipal, claims.Subject)
	}
	role, err := authz.ParseRole(claims.Role)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{ID: id, Role: role}, nil
}
