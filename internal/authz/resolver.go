package authz

import "context"

// Lookups is the read-only data access the resolver needs. Both methods
// return nil (not an error) when the target row does not exist.
type Lookups interface {
	// StudentCompanyID returns the company a student is affiliated with,
	// or nil when the student is missing or unaffiliated.
	StudentCompanyID(ctx context.Context, studentID int64) (*int64, error)
	// WorkSessionStudentID returns the owning student of a work session,
	// or nil when the work session no longer exists.
	WorkSessionStudentID(ctx context.Context, workSessionID int64) (*int64, error)
}

// Resolver answers relationship predicates against the data store. One
// Resolver is created per evaluation so repeated lookups within a single
// authorization check hit the memo instead of the store.
type Resolver struct {
	lookups        Lookups
	studentCompany map[int64]*int64
	sessionStudent map[int64]*int64
}

// NewResolver constructs a Resolver over the given lookups.
func NewResolver(lookups Lookups) *Resolver {
	return &Resolver{
		lookups:        lookups,
		studentCompany: make(map[int64]*int64),
		sessionStudent: make(map[int64]*int64),
	}
}

// IsOwnStudentData reports whether the principal is the student itself.
func (r *Resolver) IsOwnStudentData(p Principal, studentID int64) bool {
	return p.ID == studentID
}

// CompanyOwnsStudent reports whether the student exists and is affiliated
// with the given company. A missing student resolves to false, not an error.
func (r *Resolver) CompanyOwnsStudent(ctx context.Context, companyID, studentID int64) (bool, error) {
	got, err := r.studentCompanyID(ctx, studentID)
	if err != nil {
		return false, err
	}
	return got != nil && *got == companyID, nil
}

// StudentIDForWorkSession returns the owner of an already-loaded work session.
func (r *Resolver) StudentIDForWorkSession(ws WorkSessionResource) int64 {
	return ws.StudentID
}

// StudentIDForComment resolves the student owning the work session a comment
// is attached to. Returns nil when the work session has been deleted; callers
// must treat that as "cannot determine ownership" and deny.
func (r *Resolver) StudentIDForComment(ctx context.Context, c CommentResource) (*int64, error) {
	if cached, ok := r.sessionStudent[c.WorkSessionID]; ok {
		return cached, nil
	}
	studentID, err := r.lookups.WorkSessionStudentID(ctx, c.WorkSessionID)
	if err != nil {
		return nil, err
	}
	r.sessionStudent[c.WorkSessionID] = studentID
	return studentID, nil
}

func (r *Resolver) studentCompanyID(ctx context.Context, studentID int64) (*int64, error) {
	if cached, ok := r.studentCompany[studentID]; ok {
		return cached, nil
	}
	companyID, err := r.lookups.StudentCompanyID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	r.studentCompany[studentID] = companyID
	return companyID, nil
}
