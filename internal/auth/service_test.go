package auth_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/worktrack/worktrack/internal/auth"
	"github.com/worktrack/worktrack/internal/authz"
	"github.com/worktrack/worktrack/internal/users"
)

type stubDirectory struct {
	user *users.User
}

func (s *stubDirectory) GetByEmail(ctx context.Context, email string) (users.User, error) {
	if s.user == nil || s.user.Email != email {
		return users.User{}, users.ErrNotFound
	}
	return *s.user, nil
}

func verifiedStudent(t *testing.T, password string) users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return users.User{
		ID:            1,
		Email:         "stu@example.com",
		PasswordHash:  string(hash),
		Role:          authz.RoleStudent,
		EmailVerified: true,
	}
}

func TestAuthenticate(t *testing.T) {
	user := verifiedStudent(t, "password123")
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", time.Hour)

	got, err := svc.Authenticate(context.Background(), "stu@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	user := verifiedStudent(t, "password123")
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", time.Hour)

	_, err := svc.Authenticate(context.Background(), "stu@example.com", "nope-nope")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := auth.NewService(&stubDirectory{}, "secret", time.Hour)

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "password123")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateUnverifiedEmail(t *testing.T) {
	user := verifiedStudent(t, "password123")
	user.EmailVerified = false
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", time.Hour)

	_, err := svc.Authenticate(context.Background(), "stu@example.com", "password123")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	user := verifiedStudent(t, "password123")
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", time.Hour)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	principal, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, authz.Principal{ID: 1, Role: authz.RoleStudent}, principal)
}

func TestParseTokenWrongSecret(t *testing.T) {
	user := verifiedStudent(t, "password123")
	issuer := auth.NewService(&stubDirectory{user: &user}, "secret-a", time.Hour)
	verifier := auth.NewService(&stubDirectory{user: &user}, "secret-b", time.Hour)

	token, err := issuer.IssueToken(user)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.ErrorIs(t, err, authz.ErrInvalidPrincipal)
}

func TestParseTokenExpired(t *testing.T) {
	user := verifiedStudent(t, "password123")
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", -time.Minute)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	require.ErrorIs(t, err, authz.ErrInvalidPrincipal)
}

func signRaw(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParseTokenRejectsBadClaims(t *testing.T) {
	svc := auth.NewService(&stubDirectory{}, "secret", time.Hour)
	expires := jwt.NewNumericDate(time.Now().Add(time.Hour))

	cases := map[string]auth.Claims{
		"non-integer subject": {
			Role:             "student",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "abc", ExpiresAt: expires},
		},
		"zero subject": {
			Role:             "student",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "0", ExpiresAt: expires},
		},
		"missing role": {
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: expires},
		},
		"unknown role": {
			Role:             "superuser",
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: expires},
		},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ParseToken(signRaw(t, "secret", claims))
			require.ErrorIs(t, err, authz.ErrInvalidPrincipal)
		})
	}
}

func TestIssuedSubjectMatchesUser(t *testing.T) {
	user := verifiedStudent(t, "password123")
	user.ID = 12345
	svc := auth.NewService(&stubDirectory{user: &user}, "secret", time.Hour)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	principal, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, strconv.FormatInt(user.ID, 10), strconv.FormatInt(principal.ID, 10))
}
