// api/cache/store.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TTL tiers shared by the DAO and service layers. Pick the widest tier that
// still keeps the data acceptably fresh.
const (
	TTLShort  = 1 * time.Minute
	TTLMedium = 5 * time.Minute
	TTLLong   = 1 * time.Hour
	TTLDay    = 24 * time.Hour
)

// Sentinel TTL results returned by Store.TTL.
const (
	// TTLNone means the key exists but carries no expiry.
	TTLNone = time.Duration(-1)
	// TTLAbsent means the key does not exist.
	TTLAbsent = time.Duration(-2)
)

// Value is a cached payload. It keeps the raw bytes and decodes on demand,
// so a payload that is not valid JSON still reaches the caller as a string
// instead of failing the read.
type Value struct {
	raw []byte
}

// NewValue wraps raw bytes as a cache value.
func NewValue(raw []byte) Value {
	return Value{raw: raw}
}

// Bytes returns the raw stored payload.
func (v Value) Bytes() []byte {
	return v.raw
}

func (v Value) String() string {
	return string(v.raw)
}

// IsJSON reports whether the payload decodes as JSON.
func (v Value) IsJSON() bool {
	return json.Valid(v.raw)
}

// Decode unmarshals the payload into dest.
func (v Value) Decode(dest any) error {
	if err := json.Unmarshal(v.raw, dest); err != nil {
		return fmt.Errorf("cache value decode: %w", err)
	}
	return nil
}

// ServerInfo is a summary of the cache backend reported by Info.
type ServerInfo struct {
	Version          string `json:"version"`
	ConnectedClients int    `json:"connected_clients"`
	UsedMemoryHuman  string `json:"used_memory_human"`
	TotalKeys        int64  `json:"total_keys"`
}

// Store is the cache backend contract. Every operation degrades instead of
// failing: when the backend is down or disabled, reads report a miss, writes
// report false, and the caller proceeds without the cache. Ping is the only
// method that surfaces backend errors, for health reporting.
type Store interface {
	Get(ctx context.Context, key string) (Value, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) int
	Exists(ctx context.Context, key string) bool
	Expire(ctx context.Context, key string, ttl time.Duration) bool
	TTL(ctx context.Context, key string) (time.Duration, bool)

	IncrBy(ctx context.Context, key string, delta int64) (int64, bool)

	HSet(ctx context.Context, key string, fields map[string]any) bool
	HGet(ctx context.Context, key, field string) (Value, bool)
	HGetAll(ctx context.Context, key string) (map[string]Value, bool)
	HDel(ctx context.Context, key string, fields ...string) int

	LPush(ctx context.Context, key string, values ...any) bool
	LRange(ctx context.Context, key string, start, stop int64) ([]Value, bool)

	Keys(ctx context.Context, pattern string) []string
	DeletePattern(ctx context.Context, pattern string) int
	FlushAll(ctx context.Context) bool

	Ping(ctx context.Context) error
	Info(ctx context.Context) (ServerInfo, bool)
}

// encodeValue serializes a value for storage. Strings and raw bytes pass
// through untouched so counters and tokens stay greppable in redis-cli;
// everything else is JSON.
func encodeValue(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache value encode: %w", err)
		}
		return data, nil
	}
}
