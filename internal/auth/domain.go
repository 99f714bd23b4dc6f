// Package auth handles credential verification and JWT based authentication.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload: the registered subject carries the user id, the
// role claim carries the closed role name.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var (
	// ErrInvalidCredentials indicates login failure. Unverified emails
	// fail the same way so the response does not leak account state.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
