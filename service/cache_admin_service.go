// api/service/cache_admin_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/cache"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/util"
)

// CacheStatsReport is the admin stats payload: key-count buckets plus what
// the backend reports about itself.
type CacheStatsReport struct {
	Invalidation cache.InvalidationStats `json:"invalidation_stats"`
	Server       cache.ServerInfo        `json:"general_stats"`
	Available    bool                    `json:"available"`
}

// ICacheAdminService defines the admin cache maintenance operations.
type ICacheAdminService interface {
	Stats(ctx context.Context) CacheStatsReport
	InvalidateUser(ctx context.Context, userID, actorID string, meta ClientMeta) int
	InvalidateDecision(ctx context.Context, decisionID, actorID string, meta ClientMeta) int
	InvalidatePattern(ctx context.Context, pattern, actorID string, meta ClientMeta) int
	Flush(ctx context.Context, actorID string, meta ClientMeta) (int, error)
}

// CacheAdminService wraps the Invalidator with auditing. Every destructive
// call lands in the audit trail with the actor attached.
type CacheAdminService struct {
	store    cache.Store
	inv      *cache.Invalidator
	auditSvc audit.Service
	eventBus *util.EventBus
}

var _ ICacheAdminService = &CacheAdminService{}

func NewCacheAdminService(store cache.Store, inv *cache.Invalidator, auditSvc audit.Service, eventBus *util.EventBus) *CacheAdminService {
	return &CacheAdminService{
		store:    store,
		inv:      inv,
		auditSvc: auditSvc,
		eventBus: eventBus,
	}
}

func (s *CacheAdminService) Stats(ctx context.Context) CacheStatsReport {
	server, available := s.store.Info(ctx)
	return CacheStatsReport{
		Invalidation: s.inv.Stats(ctx),
		Server:       server,
		Available:    available,
	}
}

func (s *CacheAdminService) InvalidateUser(ctx context.Context, userID, actorID string, meta ClientMeta) int {
	deleted := s.inv.User(ctx, userID)
	s.recordInvalidation(ctx, actorID, "user:"+userID, deleted, meta)
	return deleted
}

func (s *CacheAdminService) InvalidateDecision(ctx context.Context, decisionID, actorID string, meta ClientMeta) int {
	deleted := s.inv.Decision(ctx, decisionID)
	s.recordInvalidation(ctx, actorID, "decision:"+decisionID, deleted, meta)
	return deleted
}

func (s *CacheAdminService) InvalidatePattern(ctx context.Context, pattern, actorID string, meta ClientMeta) int {
	logger.Warn("Admin pattern invalidation",
		zap.String("pattern", pattern),
		zap.String("actorID", actorID))
	deleted := s.inv.Pattern(ctx, pattern)
	s.recordInvalidation(ctx, actorID, pattern, deleted, meta)
	return deleted
}

// Flush clears the whole cache database. The Invalidator refuses this in
// production; the refusal is audited like the successes.
func (s *CacheAdminService) Flush(ctx context.Context, actorID string, meta ClientMeta) (int, error) {
	deleted, err := s.inv.FlushAll(ctx)

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   actorID,
		Action:  audit.ActionCacheFlush,
		Success: err == nil,
		IP:      meta.IP,
		Detail:  audit.Detail(map[string]int{"keys_deleted": deleted}),
	})
	if err != nil {
		return 0, err
	}

	s.eventBus.Publish(ctx, util.EventCacheFlushed, deleted)
	logger.Warn("Cache flushed by admin",
		zap.String("actorID", actorID),
		zap.Int("keysDeleted", deleted))
	return deleted, nil
}

func (s *CacheAdminService) recordInvalidation(ctx context.Context, actorID, target string, deleted int, meta ClientMeta) {
	s.auditSvc.Record(ctx, audit.Event{
		Actor:   actorID,
		Action:  audit.ActionCacheInvalidate,
		Target:  target,
		Success: true,
		IP:      meta.IP,
		Detail:  audit.Detail(map[string]int{"keys_deleted": deleted}),
	})
}
