package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "email_verify:"

// VerificationTokens stores one-time email verification tokens in Redis.
type VerificationTokens struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerificationTokens constructs the token store.
func NewVerificationTokens(client *redis.Client, ttl time.Duration) *VerificationTokens {
	return &VerificationTokens{client: client, ttl: ttl}
}

// Issue creates a fresh token bound to the user id.
func (t *VerificationTokens) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	key := tokenKeyPrefix + token
	if err := t.client.Set(ctx, key, userID, t.ttl).Err(); err != nil {
		return "", fmt.Errorf("users: issue token: %w", err)
	}
	return token, nil
}

// Consume resolves and deletes a token, returning the bound user id.
func (t *VerificationTokens) Consume(ctx context.Context, token string) (int64, error) {
	raw, err := t.client.GetDel(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("users: consume token: %w", err)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
