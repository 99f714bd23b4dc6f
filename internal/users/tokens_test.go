package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/worktrack/worktrack/internal/users"
)

func newTokenStore(t *testing.T) (*users.VerificationTokens, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return users.NewVerificationTokens(client, time.Hour), mr
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	store, _ := newTokenStore(t)

	token, err := store.Issue(context.Background(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := store.Consume(context.Background(), token)
	require.NoError(t, err)
	require.EqualValues(t, 42, userID)
}

func TestVerificationTokenIsOneTime(t *testing.T) {
	store, _ := newTokenStore(t)

	token, err := store.Issue(context.Background(), 7)
	require.NoError(t, err)

	_, err = store.Consume(context.Background(), token)
	require.NoError(t, err)
	_, err = store.Consume(context.Background(), token)
	require.ErrorIs(t, err, users.ErrInvalidToken)
}

func TestVerificationTokenExpires(t *testing.T) {
	store, mr := newTokenStore(t)

	token, err := store.Issue(context.Background(), 7)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Consume(context.Background(), token)
	require.ErrorIs(t, err, users.ErrInvalidToken)
}

func TestVerificationTokenUnknown(t *testing.T) {
	store, _ := newTokenStore(t)
	_, err := store.Consume(context.Background(), "missing")
	require.ErrorIs(t, err, users.ErrInvalidToken)
}
