// api/cache/memory.go
package cache

import (
	"context"
	"path"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	val       []byte
	hash      map[string][]byte
	list      [][]byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a process-local Store used by tests and by deployments that
// run with the cache disabled. Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*memoryEntry
	now  func() time.Time
}

var _ Store = &MemoryStore{}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the store's time source. Tests use this to advance
// time past entry expiries without sleeping.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]*memoryEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live returns the entry for key, dropping it first if expired.
// Callers must hold mu.
func (s *MemoryStore) live(key string) *memoryEntry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.data, key)
		return nil
	}
	return e
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.val == nil {
		return Value{}, false
	}
	return NewValue(e.val), true
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := encodeValue(value)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = &memoryEntry{val: data, expiresAt: s.deadline(ttl)}
	return true
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, key := range keys {
		if s.live(key) != nil {
			delete(s.data, key)
			deleted++
		}
	}
	return deleted
}

func (s *MemoryStore) Exists(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(key) != nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return false
	}
	e.expiresAt = s.deadline(ttl)
	return true
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return TTLAbsent, true
	}
	if e.expiresAt.IsZero() {
		return TTLNone, true
	}
	return e.expiresAt.Sub(s.now()), true
}

func (s *MemoryStore) IncrBy(ctx context.Context, key string, delta int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memoryEntry{}
		s.data[key] = e
	}
	current := int64(0)
	if len(e.val) > 0 {
		parsed, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return 0, false
		}
		current = parsed
	}
	current += delta
	e.val = []byte(strconv.FormatInt(current, 10))
	return current, true
}

func (s *MemoryStore) HSet(ctx context.Context, key string, fields map[string]any) bool {
	if len(fields) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memoryEntry{hash: make(map[string][]byte)}
		s.data[key] = e
	}
	if e.hash == nil {
		e.hash = make(map[string][]byte)
	}
	for field, value := range fields {
		data, err := encodeValue(value)
		if err != nil {
			return false
		}
		e.hash[field] = data
	}
	return true
}

func (s *MemoryStore) HGet(ctx context.Context, key, field string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		return Value{}, false
	}
	raw, ok := e.hash[field]
	if !ok {
		return Value{}, false
	}
	return NewValue(raw), true
}

func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		return map[string]Value{}, true
	}
	out := make(map[string]Value, len(e.hash))
	for field, raw := range e.hash {
		out[field] = NewValue(raw)
	}
	return out, true
}

func (s *MemoryStore) HDel(ctx context.Context, key string, fields ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil || e.hash == nil {
		return 0
	}
	deleted := 0
	for _, field := range fields {
		if _, ok := e.hash[field]; ok {
			delete(e.hash, field)
			deleted++
		}
	}
	return deleted
}

func (s *MemoryStore) LPush(ctx context.Context, key string, values ...any) bool {
	if len(values) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		e = &memoryEntry{}
		s.data[key] = e
	}
	for _, value := range values {
		data, err := encodeValue(value)
		if err != nil {
			return false
		}
		e.list = append([][]byte{data}, e.list...)
	}
	return true
}

func (s *MemoryStore) LRange(ctx context.Context, key string, start, stop int64) ([]Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.live(key)
	if e == nil {
		return []Value{}, true
	}
	n := int64(len(e.list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return []Value{}, true
	}
	out := make([]Value, 0, stop-start+1)
	for _, raw := range e.list[start : stop+1] {
		out = append(out, NewValue(raw))
	}
	return out, true
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.data {
		if s.live(key) == nil {
			continue
		}
		if matchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *MemoryStore) DeletePattern(ctx context.Context, pattern string) int {
	matched := s.Keys(ctx, pattern)
	return s.Delete(ctx, matched...)
}

func (s *MemoryStore) FlushAll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*memoryEntry)
	return true
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Info(ctx context.Context) (ServerInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := int64(0)
	for key := range s.data {
		if s.live(key) != nil {
			total++
		}
	}
	return ServerInfo{Version: "memory", TotalKeys: total}, true
}

// matchPattern applies backend-style glob matching (*, ?, [...]) to a key.
// Keys never contain '/', so path.Match implements the same semantics.
func matchPattern(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
