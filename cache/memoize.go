// api/cache/memoize.go
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/api/logging"
)

// Fetcher loads a value from the source of truth.
type Fetcher[T any] func(ctx context.Context) (T, error)

// GetOrFetch returns the cached value under key, or runs fetch and caches
// the result for ttl. Fetch errors propagate and cache nothing, so a failed
// load is retried on the next call. A cached payload that no longer decodes
// into T counts as a miss and is refetched.
//
// Concurrent misses each run fetch; there is no cross-goroutine coalescing.
func GetOrFetch[T any](ctx context.Context, store Store, key string, ttl time.Duration, fetch Fetcher[T]) (T, error) {
	if cached, ok := store.Get(ctx, key); ok {
		var out T
		if err := cached.Decode(&out); err == nil {
			return out, nil
		}
		// Plain strings are stored raw, not as JSON.
		if sp, ok := any(&out).(*string); ok {
			*sp = cached.String()
			return out, nil
		}
		logger.Warn("Cached value failed to decode, refetching",
			zap.String("key", key))
	}

	out, err := fetch(ctx)
	if err != nil {
		return out, err
	}

	store.Set(ctx, key, out, ttl)
	return out, nil
}

// InvalidateAfter runs fn and, only when it succeeds, runs invalidate.
// A failed fn leaves the cache untouched.
func InvalidateAfter[T any](ctx context.Context, fn Fetcher[T], invalidate func(context.Context)) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	invalidate(ctx)
	return out, nil
}
