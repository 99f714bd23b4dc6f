package authz

import (
	"context"
	"fmt"
)

// Rule evaluates one policy for a non-admin principal. The admin bypass has
// already happened by the time a rule runs.
type Rule func(ctx context.Context, r *Resolver, p Principal, res Resource) (Decision, error)

// Registry is the immutable table mapping policy names to rules. It is built
// once at construction and handed to the engine explicitly; there is no
// process-wide mutable handler set.
type Registry struct {
	rules map[Policy]Rule
}

// NewRegistry builds the registry with the complete, fixed policy set.
func NewRegistry() *Registry {
	return &Registry{rules: map[Policy]Rule{
		PolicyStudentOnly:             ruleStudentOnly,
		PolicyCompanyOnly:             ruleCompanyOnly,
		PolicyCanAccessStudentData:    ruleCanAccessStudentData,
		PolicyIsWorkSessionOwner:      ruleIsWorkSessionOwner,
		PolicyCanVerifyWorkSession:    ruleCanVerifyWorkSession,
		PolicyCanCommentOnWorkSession: ruleCanCommentOnWorkSession,
		PolicyIsCommentOwner:          ruleIsCommentOwner,
		PolicyCanViewComment:          ruleCanViewComment,
	}}
}

// Rule returns the rule registered for a policy.
func (reg *Registry) Rule(policy Policy) (Rule, error) {
	rule, ok := reg.rules[policy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, policy)
	}
	return rule, nil
}

// Policies lists every registered policy name.
func (reg *Registry) Policies() []Policy {
	out := make([]Policy, 0, len(reg.rules))
	for p := range reg.rules {
		out = append(out, p)
	}
	return out
}

func ruleStudentOnly(_ context.Context, _ *Resolver, p Principal, _ Resource) (Decision, error) {
	if p.Role == RoleStudent {
		return Allow, nil
	}
	return Deny, nil
}

func ruleCompanyOnly(_ context.Context, _ *Resolver, p Principal, _ Resource) (Decision, error) {
	if p.Role == RoleCompany {
		return Allow, nil
	}
	return Deny, nil
}

func ruleCanAccessStudentData(ctx context.Context, r *Resolver, p Principal, res Resource) (Decision, error) {
	target, ok := res.(StudentIDResource)
	if !ok {
		return Deny, fmt.Errorf("%w: %s requires a student id target", ErrMalformedResource, PolicyCanAccessStudentData)
	}
	if r.IsOwnStudentData(p, target.StudentID) {
		return Allow, nil
	}
	if p.Role != RoleCompany {
		return Deny, nil
	}
	owns, err := r.CompanyOwnsStudent(ctx, p.ID, target.StudentID)
	if err != nil {
		return Deny, err
	}
	if owns {
		return Allow, nil
	}
	return Deny, nil
}

func ruleIsWorkSessionOwner(_ context.Context, r *Resolver, p Principal, res Resource) (Decision, error) {
	ws, ok := res.(WorkSessionResource)
	if !ok {
		return Deny, fmt.Errorf("%w: %s requires a work session", ErrMalformedResource, PolicyIsWorkSessionOwner)
	}
	if p.Role == RoleStudent && r.StudentIDForWorkSession(ws) == p.ID {
		return Allow, nil
	}
	return Deny, nil
}

func ruleCanVerifyWorkSession(ctx context.Context, r *Resolver, p Principal, res Resource) (Decision, error) {
	return companySupervisesSession(ctx, r, p, res, PolicyCanVerifyWorkSession)
}

func ruleCanCommentOnWorkSession(ctx context.Context, r *Resolver, p Principal, res Resource) (Decision, error) {
	return companySupervisesSession(ctx, r, p, res, PolicyCanCommentOnWorkSession)
}

func companySupervisesSession(ctx context.Context, r *Resolver, p Principal, res Resource, policy Policy) (Decision, error) {
	ws, ok := res.(WorkSessionResource)
	if !ok {
		return Deny, fmt.Errorf("%w: %s requires a work session", ErrMalformedResource, policy)
	}
	if p.Role != RoleCompany {
		return Deny, nil
	}
	owns, err := r.CompanyOwnsStudent(ctx, p.ID, r.StudentIDForWorkSession(ws))
	if err != nil {
		return Deny, err
	}
	if owns {
		return Allow, nil
	}
	return Deny, nil
}

func ruleIsCommentOwner(_ context.Context, _ *Resolver, p Principal, res Resource) (Decision, error) {
	c, ok := res.(CommentResource)
	if !ok {
		return Deny, fmt.Errorf("%w: %s requires a comment", ErrMalformedResource, PolicyIsCommentOwner)
	}
	if p.Role == RoleCompany && c.CompanyID == p.ID {
		return Allow, nil
	}
	return Deny, nil
}

func ruleCanViewComment(ctx context.Context, r *Resolver, p Principal, res Resource) (Decision, error) {
	c, ok := res.(CommentResource)
	if !ok {
		return Deny, fmt.Errorf("%w: %s requires a comment", ErrMalformedResource, PolicyCanViewComment)
	}
	switch p.Role {
	case RoleStudent:
		studentID, err := r.StudentIDForComment(ctx, c)
		if err != nil {
			return Deny, err
		}
		// A dangling work session reference means ownership cannot be
		// determined; deny without raising.
		if studentID != nil && *studentID == p.ID {
			return Allow, nil
		}
		return Deny, nil
	case RoleCompany:
		if c.CompanyID == p.ID {
			return Allow, nil
		}
		studentID, err := r.StudentIDForComment(ctx, c)
		if err != nil {
			return Deny, err
		}
		if studentID == nil {
			return Deny, nil
		}
		owns, err := r.CompanyOwnsStudent(ctx, p.ID, *studentID)
		if err != nil {
			return Deny, err
		}
		if owns {
			return Allow, nil
		}
		return Deny, nil
	default:
		return Deny, nil
	}
}
