// api/cache/invalidation.go
package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
)

// Invalidator removes cached entries when the underlying data changes.
// Writers call it synchronously after a successful write, so a following
// read repopulates the cache instead of serving the stale entry.
//
// Patterns carry a leading wildcard instead of the version prefix, so a
// sweep also catches stragglers left behind by an earlier key version.
type Invalidator struct {
	store      Store
	keys       KeyScheme
	production bool
}

func NewInvalidator(store Store, keys KeyScheme, production bool) *Invalidator {
	return &Invalidator{store: store, keys: keys, production: production}
}

// User removes every cache entry scoped to one user: the profile, all keys
// carrying the user segment (decision pages, session markers), and the
// stats snapshot. Entries for other users are untouched. The email lookup
// key is not covered here; writers call UserByEmail since only they know
// the address.
func (inv *Invalidator) User(ctx context.Context, userID string) int {
	patterns := []string{
		"*:user:id:" + userID,
		"*:user:" + userID + ":*",
		"*:stats:user:" + userID,
	}
	deleted := 0
	for _, pattern := range patterns {
		deleted += inv.store.DeletePattern(ctx, pattern)
	}
	logger.Debug("Invalidated user cache",
		zap.String("user_id", userID),
		zap.Int("keys_deleted", deleted))
	return deleted
}

// UserByEmail removes the email lookup entry for one address.
func (inv *Invalidator) UserByEmail(ctx context.Context, email string) int {
	return inv.store.Delete(ctx, inv.keys.UserByEmail(email))
}

// Decision removes a single decision entry.
func (inv *Invalidator) Decision(ctx context.Context, decisionID string) int {
	return inv.store.DeletePattern(ctx, "*:decision:id:"+decisionID)
}

// UserDecisions removes every cached decision list page for one user.
// Called when a decision is created, updated, or deleted.
func (inv *Invalidator) UserDecisions(ctx context.Context, userID string) int {
	return inv.store.DeletePattern(ctx, "*:user:"+userID+":decisions:*")
}

// UserStats removes the cached stats snapshot for one user.
func (inv *Invalidator) UserStats(ctx context.Context, userID string) int {
	return inv.store.Delete(ctx, inv.keys.UserStats(userID))
}

// Session removes a single session entry.
func (inv *Invalidator) Session(ctx context.Context, sessionID string) int {
	return inv.store.Delete(ctx, inv.keys.Session(sessionID))
}

// AllUserSessions removes the per-session markers and the aggregate
// session index for one user. Logout-everywhere calls this.
func (inv *Invalidator) AllUserSessions(ctx context.Context, userID string) int {
	deleted := inv.store.DeletePattern(ctx, "*:session:user:"+userID+":*")
	deleted += inv.store.Delete(ctx, inv.keys.UserSessions(userID))
	if deleted > 0 {
		logger.Info("Invalidated all sessions for user", zap.String("user_id", userID))
	}
	return deleted
}

// Pattern removes every key matching a raw glob. Admin use only.
func (inv *Invalidator) Pattern(ctx context.Context, pattern string) int {
	deleted := inv.store.DeletePattern(ctx, pattern)
	logger.Warn("Bulk invalidation by pattern",
		zap.String("pattern", pattern),
		zap.Int("keys_deleted", deleted))
	return deleted
}

// AllUsers removes every user-scoped entry.
func (inv *Invalidator) AllUsers(ctx context.Context) int {
	deleted := inv.store.DeletePattern(ctx, "*:user:*")
	logger.Warn("Invalidated all user caches", zap.Int("keys_deleted", deleted))
	return deleted
}

// AllDecisions removes every decision-scoped entry.
func (inv *Invalidator) AllDecisions(ctx context.Context) int {
	deleted := inv.store.DeletePattern(ctx, "*:decision:*")
	logger.Warn("Invalidated all decision caches", zap.Int("keys_deleted", deleted))
	return deleted
}

// Version removes every key under an old version prefix after a version
// bump orphaned them.
func (inv *Invalidator) Version(ctx context.Context, oldVersion string) int {
	deleted := inv.store.DeletePattern(ctx, oldVersion+":*")
	logger.Warn("Invalidated cache version",
		zap.String("version", oldVersion),
		zap.Int("keys_deleted", deleted))
	return deleted
}

// InvalidationStats is a live snapshot of the cache keyspace by category.
// A key may count toward more than one category.
type InvalidationStats struct {
	TotalKeys int            `json:"total_keys"`
	ByType    map[string]int `json:"by_type"`
	Timestamp time.Time      `json:"timestamp"`
}

// Stats counts live keys by the entity segment embedded in the key.
func (inv *Invalidator) Stats(ctx context.Context) InvalidationStats {
	keys := inv.store.Keys(ctx, "*")
	byType := map[string]int{
		"users":     0,
		"decisions": 0,
		"sessions":  0,
		"stats":     0,
		"temporary": 0,
	}
	segments := map[string]string{
		"users":     ":user:",
		"decisions": ":decision:",
		"sessions":  ":session:",
		"stats":     ":stats:",
		"temporary": ":temp:",
	}
	for _, key := range keys {
		for name, segment := range segments {
			if strings.Contains(key, segment) {
				byType[name]++
			}
		}
	}
	return InvalidationStats{
		TotalKeys: len(keys),
		ByType:    byType,
		Timestamp: time.Now().UTC(),
	}
}

// FlushAll empties the whole cache database, revocations included, and
// returns how many keys were dropped. Refused in production.
func (inv *Invalidator) FlushAll(ctx context.Context) (int, error) {
	if inv.production {
		return 0, errors.ErrFlushForbidden
	}
	total := int64(0)
	if info, ok := inv.store.Info(ctx); ok {
		total = info.TotalKeys
	}
	if !inv.store.FlushAll(ctx) {
		return 0, errors.ErrCacheUnavailable
	}
	logger.Warn("Cache flushed", zap.Int64("keys_dropped", total))
	return int(total), nil
}
