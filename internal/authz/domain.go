// Package authz implements the resource-authorization core: a closed role
// model, a fixed policy registry, and an engine that decides whether a
// principal may act on a work session, a comment, or a student's data.
package authz

import (
	"errors"
	"fmt"
)

// Role is the closed set of roles a principal can hold.
type Role int

const (
	// RoleStudent tracks work sessions and owns them.
	RoleStudent Role = iota + 1
	// RoleCompany supervises affiliated students.
	RoleCompany
	// RoleAdmin bypasses every policy check.
	RoleAdmin
)

// ParseRole maps a stored role string onto the enum.
func ParseRole(s string) (Role, error) {
	switch s {
	case "student":
		return RoleStudent, nil
	case "company":
		return RoleCompany, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized role %q", ErrInvalidPrincipal, s)
	}
}

// String returns the wire representation of the role.
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleCompany:
		return "company"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleCompany || r == RoleAdmin
}

// Principal is the authenticated actor, fixed for the request's lifetime.
type Principal struct {
	ID   int64
	Role Role
}

// Valid reports whether the principal carries a usable id and role.
func (p Principal) Valid() bool {
	return p.ID > 0 && p.Role.Valid()
}

// Decision is the outcome of a policy evaluation. It carries no reason data;
// denial is an ordinary outcome, not an error.
type Decision int

const (
	// Deny rejects the operation.
	Deny Decision = iota
	// Allow permits the operation.
	Allow
)

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool {
	return d == Allow
}

// String returns a readable form for logs.
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Policy names an authorization rule.
type Policy string

// The fixed policy set.
const (
	PolicyStudentOnly             Policy = "StudentOnly"
	PolicyCompanyOnly             Policy = "CompanyOnly"
	PolicyCanAccessStudentData    Policy = "CanAccessStudentData"
	PolicyIsWorkSessionOwner      Policy = "IsWorkSessionOwner"
	PolicyCanVerifyWorkSession    Policy = "CanVerifyWorkSession"
	PolicyCanCommentOnWorkSession Policy = "CanCommentOnWorkSession"
	PolicyIsCommentOwner          Policy = "IsCommentOwner"
	PolicyCanViewComment          Policy = "CanViewComment"
)

var (
	// ErrInvalidPrincipal indicates the inbound credential could not be
	// turned into a principal. Callers map this to an authentication
	// failure, never to a denial.
	ErrInvalidPrincipal = errors.New("authz: invalid principal")
	// ErrMalformedResource indicates a policy was invoked without the
	// resource shape it requires. This is a caller bug, not input error.
	ErrMalformedResource = errors.New("authz: malformed resource")
	// ErrUnknownPolicy indicates the policy name is not registered.
	ErrUnknownPolicy = errors.New("authz: unknown policy")
)

// Resource is the tagged union of shapes a policy can be evaluated against.
// Each implementation carries exactly the fields the rules read, so a policy's
// expected shape is enforced by the type system instead of runtime casts.
type Resource interface {
	isResource()
}

// WorkSessionResource targets a loaded work session.
type WorkSessionResource struct {
	ID        int64
	StudentID int64
}

// CommentResource targets a loaded comment.
type CommentResource struct {
	ID            int64
	WorkSessionID int64
	CompanyID     int64
}

// StudentIDResource targets a student by id, without loading the record.
type StudentIDResource struct {
	StudentID int64
}

func (WorkSessionResource) isResource() {}
func (CommentResource) isResource()     {}
func (StudentIDResource) isResource()   {}
