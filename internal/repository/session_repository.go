package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	stateKeyPrefix   = "oauth_state:"
)

// SessionRepository keeps one active session token per user and short-lived OAuth states in Redis.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save stores the token as the user's current session, replacing any previous one.
func (r *SessionRepository) Save(ctx context.Context, userID, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, sessionKeyPrefix+userID, token, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", userID, err)
	}
	return nil
}

// Exists reports whether the user has a live session.
func (r *SessionRepository) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKeyPrefix+userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists session %s: %w", userID, err)
	}
	return n > 0, nil
}

// Delete removes the user's session.
func (r *SessionRepository) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis del session %s: %w", userID, err)
	}
	return nil
}

// SaveState records an OAuth anti-forgery state.
func (r *SessionRepository) SaveState(ctx context.Context, state string, ttl time.Duration) error {
	if err := r.client.Set(ctx, stateKeyPrefix+state, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set oauth state: %w", err)
	}
	return nil
}

// ConsumeState atomically removes the state and reports whether it was present.
func (r *SessionRepository) ConsumeState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	err := r.client.GetDel(ctx, stateKeyPrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis getdel oauth state: %w", err)
	}
	return true, nil
}
