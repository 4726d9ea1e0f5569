// api/dao/session_dao.go
package dao

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/cache"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
)

// SessionDAO keeps sessions in the cache store only; nothing touches Mongo.
// Each session has three keys: the document, an entry in the user's session
// index hash, and a marker shaped so the user-scoped invalidation pattern
// can reach it. All three carry the session lifetime. With the store
// degraded, sessions silently stop being tracked; authentication itself
// stays stateless and unaffected.
type SessionDAO struct {
	store cache.Store
	keys  cache.KeyScheme
	inv   *cache.Invalidator
}

func NewSessionDAO(store cache.Store, keys cache.KeyScheme, inv *cache.Invalidator) *SessionDAO {
	return &SessionDAO{store: store, keys: keys, inv: inv}
}

func (dao *SessionDAO) CreateSession(ctx context.Context, session model.Session, ttl time.Duration) error {
	if !dao.store.Set(ctx, dao.keys.Session(session.ID), session, ttl) {
		logger.Warn("Session not recorded, cache unavailable",
			zap.String("sessionID", session.ID),
			zap.String("userID", session.UserID))
		return nil
	}

	dao.store.HSet(ctx, dao.keys.UserSessions(session.UserID), map[string]any{
		session.ID: session.CreatedAt.UTC().Format(time.RFC3339),
	})
	dao.store.Set(ctx, dao.keys.SessionMarker(session.UserID, session.ID), "1", ttl)
	// The index outlives any single session; every login pushes it out by
	// one full session lifetime.
	dao.store.Expire(ctx, dao.keys.UserSessions(session.UserID), ttl)

	logger.Debug("Session recorded",
		zap.String("sessionID", session.ID),
		zap.String("userID", session.UserID))
	return nil
}

func (dao *SessionDAO) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	val, ok := dao.store.Get(ctx, dao.keys.Session(sessionID))
	if !ok {
		return nil, arbiter_errors.ErrSessionNotFound
	}
	var session model.Session
	if err := val.Decode(&session); err != nil {
		logger.Warn("Undecodable session document, dropping",
			zap.String("sessionID", sessionID),
			zap.Error(err))
		dao.store.Delete(ctx, dao.keys.Session(sessionID))
		return nil, arbiter_errors.ErrSessionNotFound
	}
	return &session, nil
}

// ListUserSessions resolves the index hash to live session documents.
// Index entries whose document has lapsed are pruned as they are seen.
func (dao *SessionDAO) ListUserSessions(ctx context.Context, userID string) ([]model.Session, error) {
	index, ok := dao.store.HGetAll(ctx, dao.keys.UserSessions(userID))
	if !ok || len(index) == 0 {
		return []model.Session{}, nil
	}

	sessions := make([]model.Session, 0, len(index))
	for sessionID := range index {
		session, err := dao.GetSession(ctx, sessionID)
		if err != nil {
			dao.store.HDel(ctx, dao.keys.UserSessions(userID), sessionID)
			dao.store.Delete(ctx, dao.keys.SessionMarker(userID, sessionID))
			continue
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// TouchSession refreshes LastSeen in place, preserving the remaining TTL so
// a touched session still expires with its refresh token.
func (dao *SessionDAO) TouchSession(ctx context.Context, sessionID string, at time.Time) {
	session, err := dao.GetSession(ctx, sessionID)
	if err != nil {
		return
	}
	remaining, ok := dao.store.TTL(ctx, dao.keys.Session(sessionID))
	if !ok || remaining <= 0 {
		return
	}
	session.LastSeen = at.UTC()
	dao.store.Set(ctx, dao.keys.Session(sessionID), *session, remaining)
}

// RevokeSession removes one session's document, marker, and index entry.
// Reports whether a session document was actually removed.
func (dao *SessionDAO) RevokeSession(ctx context.Context, userID, sessionID string) bool {
	deleted := dao.inv.Session(ctx, sessionID)
	dao.store.Delete(ctx, dao.keys.SessionMarker(userID, sessionID))
	dao.store.HDel(ctx, dao.keys.UserSessions(userID), sessionID)

	if deleted > 0 {
		logger.Info("Session revoked",
			zap.String("sessionID", sessionID),
			zap.String("userID", userID))
	}
	return deleted > 0
}

// RevokeAllSessions is logout-everywhere: session documents first, then the
// markers and index in one sweep.
func (dao *SessionDAO) RevokeAllSessions(ctx context.Context, userID string) int {
	index, _ := dao.store.HGetAll(ctx, dao.keys.UserSessions(userID))
	revoked := 0
	for sessionID := range index {
		revoked += dao.store.Delete(ctx, dao.keys.Session(sessionID))
	}
	dao.inv.AllUserSessions(ctx, userID)

	if revoked > 0 {
		logger.Info("All sessions revoked",
			zap.String("userID", userID),
			zap.Int("count", revoked))
	}
	return revoked
}
