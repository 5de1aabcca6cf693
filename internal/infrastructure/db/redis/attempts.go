package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts   = 10
	defaultAttemptWindow = 15 * time.Minute
)

// AttemptLimiter throttles failed logins per account, backed by Redis.
// Key format: login_attempts:<email>, a counter expiring after the window.
type AttemptLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewAttemptLimiter creates an AttemptLimiter wrapping the given Redis client.
func NewAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultAttemptWindow
	}
	return &AttemptLimiter{client: client, max: maxAttempts, window: window}
}

// Blocked reports whether the account has exhausted its attempt budget.
func (l *AttemptLimiter) Blocked(ctx context.Context, email string) (bool, error) {
	n, err := l.client.Get(ctx, l.key(email)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("attempts check: %w", err)
	}
	return n >= int64(l.max), nil
}

// RecordFailure counts one failed attempt. The window starts with the first
// failure and is not extended by later ones.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, email string) error {
	key := l.key(email)
	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("attempts incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("attempts expire: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *AttemptLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, l.key(email)).Err()
}

func (l *AttemptLimiter) key(email string) string {
	return fmt.Sprintf("login_attempts:%s", email)
}
