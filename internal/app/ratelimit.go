package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeLimiter throttles verification code delivery per account.
type CodeLimiter interface {
	// Allow reports whether a code may be sent to the email now. A true
	// result reserves the slot until the window elapses.
	Allow(ctx context.Context, email string) (bool, error)
}

// RedisCodeLimiter reserves a per-email key with SET NX so only one code goes
// out per window, across all server instances.
type RedisCodeLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCodeLimiter connects to Redis with the given resend window.
func NewRedisCodeLimiter(addr, password string, window time.Duration) *RedisCodeLimiter {
	if window <= 0 {
		window = time.Minute
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisCodeLimiter{client: client, window: window}
}

// Allow reserves the send slot for the email.
func (l *RedisCodeLimiter) Allow(ctx context.Context, email string) (bool, error) {
	ok, err := l.client.SetNX(ctx, "otp:resend:"+email, "1", l.window).Result()
	if err != nil {
		return false, fmt.Errorf("reserve code slot: %w", err)
	}
	return ok, nil
}
