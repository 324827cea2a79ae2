package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/shared"
)

// Throttle guards the login path against repeated failures for one email.
type Throttle interface {
	Check(ctx context.Context, email string) error
	Fail(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// LoginThrottle counts failed logins per email in Redis. Redis errors are
// logged and treated as "allowed" so an outage does not lock everyone out.
type LoginThrottle struct {
	client      *redis.Client
	logger      *slog.Logger
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(client *redis.Client, logger *slog.Logger, maxAttempts int, window time.Duration) *LoginThrottle {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginThrottle{client: client, logger: logger, maxAttempts: maxAttempts, window: window}
}

// Check returns shared.ErrTooManyAttempts once the failure count reaches the limit.
func (t *LoginThrottle) Check(ctx context.Context, email string) error {
	if t == nil || t.client == nil || t.maxAttempts <= 0 {
		return nil
	}
	count, err := t.client.Get(ctx, throttleKey(email)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			t.logger.Warn("login throttle check", slog.Any("error", err))
		}
		return nil
	}
	if count >= t.maxAttempts {
		return shared.ErrTooManyAttempts
	}
	return nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (t *LoginThrottle) Fail(ctx context.Context, email string) {
	if t == nil || t.client == nil || t.maxAttempts <= 0 {
		return
	}
	key := throttleKey(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle incr", slog.Any("error", err))
		return
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire", slog.Any("error", err))
		}
	}
}

// Reset clears the failure count after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, throttleKey(email)).Err(); err != nil {
		t.logger.Warn("login throttle reset", slog.Any("error", err))
	}
}

// throttleKey uses the email as submitted; credential lookups are exact-match.
func throttleKey(email string) string {
	return "login_attempts:" + email
}

type noopThrottle struct{}

func (noopThrottle) Check(context.Context, string) error { return nil }
func (noopThrottle) Fail(context.Context, string)        {}
func (noopThrottle) Reset(context.Context, string)       {}

var _ Throttle = (*LoginThrottle)(nil)
