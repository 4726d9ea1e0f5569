// api/cache/ratelimit.go
package cache

import (
	"context"
	"strconv"
	"time"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts requests per subject and endpoint in fixed windows.
// The counter key gets its expiry on the first increment of a window; when
// it lapses the window resets. A denied request never increments, so
// hammering a closed window cannot extend it.
//
// When the backend is degraded every check is allowed. Losing rate
// limiting is preferable to refusing traffic.
type RateLimiter struct {
	store  Store
	keys   KeyScheme
	limit  int
	window time.Duration
}

func NewRateLimiter(store Store, keys KeyScheme, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, keys: keys, limit: limit, window: window}
}

// Limit returns the configured requests allowed per window.
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Window returns the configured window length.
func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

// Allow records one request for subject on endpoint and reports whether it
// fits the current window.
func (rl *RateLimiter) Allow(ctx context.Context, subject, endpoint string) Decision {
	key := rl.keys.RateLimit(subject, endpoint)

	count := int64(0)
	if v, ok := rl.store.Get(ctx, key); ok {
		if n, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			count = n
		}
	}

	if count >= int64(rl.limit) {
		retry := rl.window
		if ttl, ok := rl.store.TTL(ctx, key); ok && ttl > 0 {
			retry = ttl
		}
		return Decision{Allowed: false, Limit: rl.limit, Remaining: 0, RetryAfter: retry}
	}

	newCount := IncrementCounter(ctx, rl.store, key, 1, rl.window)
	remaining := rl.limit - int(newCount)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: rl.limit, Remaining: remaining}
}

// IncrementCounter adds delta to a counter key and starts its expiry on the
// first write of a window. Returns the new value, or 0 when the backend is
// degraded.
func IncrementCounter(ctx context.Context, store Store, key string, delta int64, ttl time.Duration) int64 {
	value, ok := store.IncrBy(ctx, key, delta)
	if !ok {
		return 0
	}
	if ttl > 0 && value == delta {
		store.Expire(ctx, key, ttl)
	}
	return value
}
