package authz

import (
	"context"
	"fmt"
)

// Engine evaluates policies against principals and resources. Evaluations are
// stateless and safe for concurrent use; each call builds its own Resolver so
// lookup memoisation never crosses request boundaries.
type Engine struct {
	lookups  Lookups
	registry *Registry
}

// NewEngine constructs an Engine over the given lookups and registry.
func NewEngine(lookups Lookups, registry *Registry) *Engine {
	return &Engine{lookups: lookups, registry: registry}
}

// Authorize evaluates one policy. Deny is an ordinary return value, not an
// error. Errors are reserved for an unusable principal, a wrong or missing
// resource shape, an unknown policy, or a failed/cancelled lookup.
func (e *Engine) Authorize(ctx context.Context, p Principal, policy Policy, res Resource) (Decision, error) {
	if !p.Valid() {
		return Deny, fmt.Errorf("%w: id=%d role=%s", ErrInvalidPrincipal, p.ID, p.Role)
	}
	rule, err := e.registry.Rule(policy)
	if err != nil {
		return Deny, err
	}
	// Admin bypass is global and intentional: short-circuit before any
	// relationship lookup runs.
	if p.Role == RoleAdmin {
		return Allow, nil
	}
	if err := ctx.Err(); err != nil {
		return Deny, err
	}
	return rule(ctx, NewResolver(e.lookups), p, res)
}
