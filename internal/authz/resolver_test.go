package authz_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/worktrack/worktrack/internal/authz"
)

func TestResolverMemoisesStudentCompanyLookup(t *testing.T) {
	lookups := newFixture()
	resolver := authz.NewResolver(lookups)

	for i := 0; i < 3; i++ {
		owns, err := resolver.CompanyOwnsStudent(context.Background(), 5, 1)
		require.NoError(t, err)
		require.True(t, owns)
	}
	require.Equal(t, 1, lookups.calls)
}

func TestResolverMemoisesMissingRows(t *testing.T) {
	lookups := newFixture()
	resolver := authz.NewResolver(lookups)

	for i := 0; i < 2; i++ {
		owns, err := resolver.CompanyOwnsStudent(context.Background(), 5, 404)
		require.NoError(t, err)
		require.False(t, owns)
	}
	require.Equal(t, 1, lookups.calls)
}

func TestResolverStudentIDForComment(t *testing.T) {
	lookups := newFixture()
	resolver := authz.NewResolver(lookups)

	studentID, err := resolver.StudentIDForComment(context.Background(), comment100)
	require.NoError(t, err)
	require.NotNil(t, studentID)
	require.EqualValues(t, 1, *studentID)

	// Second resolution hits the memo.
	_, err = resolver.StudentIDForComment(context.Background(), comment100)
	require.NoError(t, err)
	require.Equal(t, 1, lookups.calls)
}

func TestResolverStudentIDForCommentDangling(t *testing.T) {
	lookups := newFixture()
	delete(lookups.sessionStudents, 10)
	resolver := authz.NewResolver(lookups)

	studentID, err := resolver.StudentIDForComment(context.Background(), comment100)
	require.NoError(t, err)
	require.Nil(t, studentID)
}

func TestIsOwnStudentData(t *testing.T) {
	resolver := authz.NewResolver(newFixture())
	require.True(t, resolver.IsOwnStudentData(student1, 1))
	require.False(t, resolver.IsOwnStudentData(student1, 2))
}

func TestParseRole(t *testing.T) {
	cases := map[string]authz.Role{
		"student": authz.RoleStudent,
		"company": authz.RoleCompany,
		"admin":   authz.RoleAdmin,
	}
	for raw, want := range cases {
		role, err := authz.ParseRole(raw)
		require.NoError(t, err)
		require.Equal(t, want, role)
		require.Equal(t, raw, role.String())
	}

	_, err := authz.ParseRole("Supervisor")
	require.ErrorIs(t, err, authz.ErrInvalidPrincipal)
	_, err = authz.ParseRole("")
	require.ErrorIs(t, err, authz.ErrInvalidPrincipal)
}

func TestRegistryCoversFixedPolicySet(t *testing.T) {
	registry := authz.NewRegistry()
	require.ElementsMatch(t, []authz.Policy{
		authz.PolicyStudentOnly,
		authz.PolicyCompanyOnly,
		authz.PolicyCanAccessStudentData,
		authz.PolicyIsWorkSessionOwner,
		authz.PolicyCanVerifyWorkSession,
		authz.PolicyCanCommentOnWorkSession,
		authz.PolicyIsCommentOwner,
		authz.PolicyCanViewComment,
	}, registry.Policies())

	_, err := registry.Rule(authz.Policy("Nope"))
	require.ErrorIs(t, err, authz.ErrUnknownPolicy)
}
