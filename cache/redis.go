// api/cache/redis.go
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/api/logging"
)

// scanCount is the COUNT hint for SCAN when walking key patterns. Pattern
// deletion must never use KEYS, which blocks the server on large keyspaces.
const scanCount = 100

// RedisStore is the Redis-backed Store. A nil client puts the store in
// permanent degraded mode: every read is a miss, every write a no-op, and
// the service keeps running without the cache.
type RedisStore struct {
	client *redis.Client
}

var _ Store = &RedisStore{}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) degraded(op, key string, err error) {
	logger.Warn("Cache operation degraded",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}

func (s *RedisStore) Get(ctx context.Context, key string) (Value, bool) {
	if s.client == nil {
		return Value{}, false
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Value{}, false
	}
	if err != nil {
		s.degraded("get", key, err)
		return Value{}, false
	}
	return NewValue(raw), true
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if s.client == nil {
		return false
	}
	data, err := encodeValue(value)
	if err != nil {
		s.degraded("set", key, err)
		return false
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		s.degraded("set", key, err)
		return false
	}
	return true
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) int {
	if s.client == nil || len(keys) == 0 {
		return 0
	}
	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		s.degraded("delete", strings.Join(keys, ","), err)
		return 0
	}
	return int(n)
}

func (s *RedisStore) Exists(ctx context.Context, key string) bool {
	if s.client == nil {
		return false
	}
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.degraded("exists", key, err)
		return false
	}
	return n > 0
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	if s.client == nil {
		return false
	}
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		s.degraded("expire", key, err)
		return false
	}
	return ok
}

// TTL reports the remaining lifetime of a key. The backend encodes the two
// special cases as -1 (no expiry) and -2 (no such key); those arrive from
// go-redis as -1ns and -2ns and are normalized to TTLNone and TTLAbsent.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, bool) {
	if s.client == nil {
		return 0, false
	}
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		s.degraded("ttl", key, err)
		return 0, false
	}
	switch d {
	case -1:
		return TTLNone, true
	case -2:
		return TTLAbsent, true
	}
	return d, true
}

func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, bool) {
	if s.client == nil {
		return 0, false
	}
	n, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		s.degraded("incrby", key, err)
		return 0, false
	}
	return n, true
}

func (s *RedisStore) HSet(ctx context.Context, key string, fields map[string]any) bool {
	if s.client == nil || len(fields) == 0 {
		return false
	}
	encoded := make(map[string]any, len(fields))
	for field, value := range fields {
		data, err := encodeValue(value)
		if err != nil {
			s.degraded("hset", key, err)
			return false
		}
		encoded[field] = data
	}
	if err := s.client.HSet(ctx, key, encoded).Err(); err != nil {
		s.degraded("hset", key, err)
		return false
	}
	return true
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (Value, bool) {
	if s.client == nil {
		return Value{}, false
	}
	raw, err := s.client.HGet(ctx, key, field).Bytes()
	if err == redis.Nil {
		return Value{}, false
	}
	if err != nil {
		s.degraded("hget", key, err)
		return Value{}, false
	}
	return NewValue(raw), true
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]Value, bool) {
	if s.client == nil {
		return nil, false
	}
	raw, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		s.degraded("hgetall", key, err)
		return nil, false
	}
	out := make(map[string]Value, len(raw))
	for field, val := range raw {
		out[field] = NewValue([]byte(val))
	}
	return out, true
}

func (s *RedisStore) HDel(ctx context.Context, key string, fields ...string) int {
	if s.client == nil || len(fields) == 0 {
		return 0
	}
	n, err := s.client.HDel(ctx, key, fields...).Result()
	if err != nil {
		s.degraded("hdel", key, err)
		return 0
	}
	return int(n)
}

func (s *RedisStore) LPush(ctx context.Context, key string, values ...any) bool {
	if s.client == nil || len(values) == 0 {
		return false
	}
	encoded := make([]any, 0, len(values))
	for _, value := range values {
		data, err := encodeValue(value)
		if err != nil {
			s.degraded("lpush", key, err)
			return false
		}
		encoded = append(encoded, data)
	}
	if err := s.client.LPush(ctx, key, encoded...).Err(); err != nil {
		s.degraded("lpush", key, err)
		return false
	}
	return true
}

func (s *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([]Value, bool) {
	if s.client == nil {
		return nil, false
	}
	raw, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		s.degraded("lrange", key, err)
		return nil, false
	}
	out := make([]Value, 0, len(raw))
	for _, val := range raw {
		out = append(out, NewValue([]byte(val)))
	}
	return out, true
}

// Keys walks the keyspace with SCAN and returns every key matching pattern.
func (s *RedisStore) Keys(ctx context.Context, pattern string) []string {
	if s.client == nil {
		return nil
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.degraded("scan", pattern, err)
		return nil
	}
	return keys
}

// DeletePattern removes every key matching pattern and returns how many
// were deleted. Keys are collected with SCAN and deleted in batches so a
// large sweep never issues one enormous DEL.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) int {
	if s.client == nil {
		return 0
	}
	deleted := 0
	batch := make([]string, 0, scanCount)
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanCount {
			deleted += s.Delete(ctx, batch...)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.degraded("scan", pattern, err)
		return deleted
	}
	if len(batch) > 0 {
		deleted += s.Delete(ctx, batch...)
	}
	return deleted
}

func (s *RedisStore) FlushAll(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		s.degraded("flushdb", "", err)
		return false
	}
	return true
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return redis.ErrClosed
	}
	return s.client.Ping(ctx).Err()
}

// Info summarizes the backend for the admin cache stats endpoint.
func (s *RedisStore) Info(ctx context.Context) (ServerInfo, bool) {
	if s.client == nil {
		return ServerInfo{}, false
	}
	raw, err := s.client.Info(ctx, "server", "clients", "memory").Result()
	if err != nil {
		s.degraded("info", "", err)
		return ServerInfo{}, false
	}
	fields := parseInfo(raw)
	info := ServerInfo{
		Version:         fields["redis_version"],
		UsedMemoryHuman: fields["used_memory_human"],
	}
	if clients, err := strconv.Atoi(fields["connected_clients"]); err == nil {
		info.ConnectedClients = clients
	}
	if size, err := s.client.DBSize(ctx).Result(); err == nil {
		info.TotalKeys = size
	}
	return info, true
}

// parseInfo splits the INFO reply ("field:value" lines, "#" section headers)
// into a flat map.
func parseInfo(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\r\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			fields[parts[0]] = parts[1]
		}
	}
	return fields
}
