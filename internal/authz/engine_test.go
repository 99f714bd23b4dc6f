package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worktrack/worktrack/internal/authz"
)

type fakeLookups struct {
	studentCompanies map[int64]int64
	sessionStudents  map[int64]int64
	calls            int
	err              error
}

func (f *fakeLookups) StudentCompanyID(ctx context.Context, studentID int64) (*int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	companyID, ok := f.studentCompanies[studentID]
	if !ok {
		return nil, nil
	}
	return &companyID, nil
}

func (f *fakeLookups) WorkSessionStudentID(ctx context.Context, workSessionID int64) (*int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	studentID, ok := f.sessionStudents[workSessionID]
	if !ok {
		return nil, nil
	}
	return &studentID, nil
}

// newFixture mirrors the seed scenario used throughout: company 5 owns
// student 1, session 10 belongs to student 1, comment 100 was written by
// company 5 on session 10. Company 6 and student 2 are unrelated.
func newFixture() *fakeLookups {
	return &fakeLookups{
		studentCompanies: map[int64]int64{1: 5},
		sessionStudents:  map[int64]int64{10: 1},
	}
}

func newEngine(lookups authz.Lookups) *authz.Engine {
	return authz.NewEngine(lookups, authz.NewRegistry())
}

var (
	student1 = authz.Principal{ID: 1, Role: authz.RoleStudent}
	student2 = authz.Principal{ID: 2, Role: authz.RoleStudent}
	company5 = authz.Principal{ID: 5, Role: authz.RoleCompany}
	company6 = authz.Principal{ID: 6, Role: authz.RoleCompany}
	admin    = authz.Principal{ID: 99, Role: authz.RoleAdmin}

	session10  = authz.WorkSessionResource{ID: 10, StudentID: 1}
	comment100 = authz.CommentResource{ID: 100, WorkSessionID: 10, CompanyID: 5}
)

func TestAdminBypassesEveryPolicy(t *testing.T) {
	engine := newEngine(newFixture())
	registry := authz.NewRegistry()

	resources := map[authz.Policy]authz.Resource{
		authz.PolicyCanAccessStudentData:    authz.StudentIDResource{StudentID: 1},
		authz.PolicyIsWorkSessionOwner:      session10,
		authz.PolicyCanVerifyWorkSession:    session10,
		authz.PolicyCanCommentOnWorkSession: session10,
		authz.PolicyIsCommentOwner:          comment100,
		authz.PolicyCanViewComment:          comment100,
	}

	for _, policy := range registry.Policies() {
		decision, err := engine.Authorize(context.Background(), admin, policy, resources[policy])
		require.NoError(t, err, "policy %s", policy)
		require.Equal(t, authz.Allow, decision, "policy %s", policy)
	}
}

func TestAdminBypassSkipsLookups(t *testing.T) {
	lookups := newFixture()
	engine := newEngine(lookups)

	decision, err := engine.Authorize(context.Background(), admin, authz.PolicyCanViewComment, comment100)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)
	require.Zero(t, lookups.calls)
}

func TestRoleOnlyPolicies(t *testing.T) {
	engine := newEngine(newFixture())

	cases := []struct {
		name      string
		principal authz.Principal
		policy    authz.Policy
		want      authz.Decision
	}{
		{"student passes StudentOnly", student1, authz.PolicyStudentOnly, authz.Allow},
		{"company fails StudentOnly", company5, authz.PolicyStudentOnly, authz.Deny},
		{"company passes CompanyOnly", company5, authz.PolicyCompanyOnly, authz.Allow},
		{"student fails CompanyOnly", student1, authz.PolicyCompanyOnly, authz.Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := engine.Authorize(context.Background(), tc.principal, tc.policy, nil)
			require.NoError(t, err)
			require.Equal(t, tc.want, decision)
		})
	}
}

func TestCanAccessStudentData(t *testing.T) {
	engine := newEngine(newFixture())

	cases := []struct {
		name      string
		principal authz.Principal
		studentID int64
		want      authz.Decision
	}{
		{"student reads own data", student1, 1, authz.Allow},
		{"student denied other student", student2, 1, authz.Deny},
		{"owning company allowed", company5, 1, authz.Allow},
		{"unrelated company denied", company6, 1, authz.Deny},
		{"missing student denied", company5, 404, authz.Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := engine.Authorize(context.Background(), tc.principal, authz.PolicyCanAccessStudentData, authz.StudentIDResource{StudentID: tc.studentID})
			require.NoError(t, err)
			require.Equal(t, tc.want, decision)
		})
	}
}

func TestIsWorkSessionOwner(t *testing.T) {
	engine := newEngine(newFixture())

	decision, err := engine.Authorize(context.Background(), student1, authz.PolicyIsWorkSessionOwner, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)

	decision, err = engine.Authorize(context.Background(), student2, authz.PolicyIsWorkSessionOwner, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)

	// A company is never an owner, even of its own students' sessions.
	decision, err = engine.Authorize(context.Background(), company5, authz.PolicyIsWorkSessionOwner, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)
}

func TestCanVerifyWorkSession(t *testing.T) {
	engine := newEngine(newFixture())

	decision, err := engine.Authorize(context.Background(), company5, authz.PolicyCanVerifyWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)

	decision, err = engine.Authorize(context.Background(), company6, authz.PolicyCanVerifyWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)

	decision, err = engine.Authorize(context.Background(), student1, authz.PolicyCanVerifyWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)
}

func TestCanCommentOnWorkSession(t *testing.T) {
	engine := newEngine(newFixture())

	decision, err := engine.Authorize(context.Background(), company5, authz.PolicyCanCommentOnWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)

	decision, err = engine.Authorize(context.Background(), company6, authz.PolicyCanCommentOnWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)
}

func TestIsCommentOwner(t *testing.T) {
	engine := newEngine(newFixture())

	decision, err := engine.Authorize(context.Background(), company5, authz.PolicyIsCommentOwner, comment100)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)

	decision, err = engine.Authorize(context.Background(), company6, authz.PolicyIsCommentOwner, comment100)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)

	decision, err = engine.Authorize(context.Background(), student1, authz.PolicyIsCommentOwner, comment100)
	require.NoError(t, err)
	require.Equal(t, authz.Deny, decision)
}

func TestCanViewComment(t *testing.T) {
	engine := newEngine(newFixture())

	cases := []struct {
		name      string
		principal authz.Principal
		want      authz.Decision
	}{
		{"student owning the session", student1, authz.Allow},
		{"unrelated student", student2, authz.Deny},
		{"authoring company", company5, authz.Allow},
		{"unrelated company", company6, authz.Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := engine.Authorize(context.Background(), tc.principal, authz.PolicyCanViewComment, comment100)
			require.NoError(t, err)
			require.Equal(t, tc.want, decision)
		})
	}
}

func TestCanViewCommentSupervisingCompanyWithoutAuthorship(t *testing.T) {
	// Company 5 supervises student 1 but did not write the comment.
	engine := newEngine(newFixture())
	foreign := authz.CommentResource{ID: 101, WorkSessionID: 10, CompanyID: 7}

	decision, err := engine.Authorize(context.Background(), company5, authz.PolicyCanViewComment, foreign)
	require.NoError(t, err)
	require.Equal(t, authz.Allow, decision)
}

func TestDanglingWorkSessionDeniesForEveryNonAdmin(t *testing.T) {
	lookups := newFixture()
	delete(lookups.sessionStudents, 10)
	engine := newEngine(lookups)

	for _, principal := range []authz.Principal{student1, student2, company5, company6} {
		decision, err := engine.Authorize(context.Background(), principal, authz.PolicyCanViewComment, comment100)
		require.NoError(t, err, "principal %+v", principal)
		require.Equal(t, authz.Deny, decision, "principal %+v", principal)
	}
}

func TestAuthorizeIdempotent(t *testing.T) {
	engine := newEngine(newFixture())

	first, err := engine.Authorize(context.Background(), company5, authz.PolicyCanVerifyWorkSession, session10)
	require.NoError(t, err)
	second, err := engine.Authorize(context.Background(), company5, authz.PolicyCanVerifyWorkSession, session10)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestInvalidPrincipal(t *testing.T) {
	engine := newEngine(newFixture())

	cases := []authz.Principal{
		{},
		{ID: 0, Role: authz.RoleStudent},
		{ID: 1},
		{ID: 1, Role: authz.Role(42)},
	}
	for _, p := range cases {
		_, err := engine.Authorize(context.Background(), p, authz.PolicyStudentOnly, nil)
		require.ErrorIs(t, err, authz.ErrInvalidPrincipal, "principal %+v", p)
	}
}

func TestMalformedResource(t *testing.T) {
	engine := newEngine(newFixture())

	cases := []struct {
		policy authz.Policy
		res    authz.Resource
	}{
		{authz.PolicyIsWorkSessionOwner, nil},
		{authz.PolicyIsWorkSessionOwner, comment100},
		{authz.PolicyCanVerifyWorkSession, authz.StudentIDResource{StudentID: 1}},
		{authz.PolicyCanCommentOnWorkSession, nil},
		{authz.PolicyIsCommentOwner, session10},
		{authz.PolicyCanViewComment, nil},
		{authz.PolicyCanAccessStudentData, session10},
	}
	for _, tc := range cases {
		_, err := engine.Authorize(context.Background(), student1, tc.policy, tc.res)
		require.ErrorIs(t, err, authz.ErrMalformedResource, "policy %s", tc.policy)
	}
}

func TestUnknownPolicy(t *testing.T) {
	engine := newEngine(newFixture())

	_, err := engine.Authorize(context.Background(), student1, authz.Policy("NoSuchPolicy"), nil)
	require.ErrorIs(t, err, authz.ErrUnknownPolicy)

	_, err = engine.Authorize(context.Background(), admin, authz.Policy("NoSuchPolicy"), nil)
	require.ErrorIs(t, err, authz.ErrUnknownPolicy)
}

func TestLookupErrorPropagates(t *testing.T) {
	lookups := newFixture()
	lookups.err = errors.New("connection reset")
	engine := newEngine(lookups)

	_, err := engine.Authorize(context.Background(), company5, authz.PolicyCanVerifyWorkSession, session10)
	require.Error(t, err)
	require.NotErrorIs(t, err, authz.ErrMalformedResource)
}

func TestCancelledContextPropagates(t *testing.T) {
	engine := newEngine(newFixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Authorize(ctx, company5, authz.PolicyCanVerifyWorkSession, session10)
	require.ErrorIs(t, err, context.Canceled)
}
