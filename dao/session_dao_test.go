// api/dao/session_dao_test.go
package dao_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/dao"
	"github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
)

func newSessionDAO(store cache.Store) *dao.SessionDAO {
	keys := cache.NewKeyScheme("v1")
	return dao.NewSessionDAO(store, keys, cache.NewInvalidator(store, keys, false))
}

func makeSession(id, userID string, at time.Time) model.Session {
	return model.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: "arbiter-test/1.0",
		IP:        "203.0.113.7",
		CreatedAt: at,
		LastSeen:  at,
	}
}

func TestSessionDAO(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateThenGet", func(t *testing.T) {
		store := cache.NewMemoryStore()
		sessions := newSessionDAO(store)
		created := makeSession("sess-1", "user-1", time.Now())

		require.NoError(t, sessions.CreateSession(ctx, created, time.Hour))

		got, err := sessions.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "arbiter-test/1.0", got.UserAgent)
	})

	t.Run("GetMissing_NotFound", func(t *testing.T) {
		sessions := newSessionDAO(cache.NewMemoryStore())

		_, err := sessions.GetSession(ctx, "nope")
		assert.ErrorIs(t, err, errors.ErrSessionNotFound)
	})

	t.Run("ListUserSessions", func(t *testing.T) {
		store := cache.NewMemoryStore()
		sessions := newSessionDAO(store)
		now := time.Now()

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-1", "user-1", now), time.Hour))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-2", "user-1", now), time.Hour))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-3", "user-2", now), time.Hour))

		list, err := sessions.ListUserSessions(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, list, 2)
		for _, s := range list {
			assert.Equal(t, "user-1", s.UserID)
		}
	})

	t.Run("ListPrunesLapsedSessions", func(t *testing.T) {
		now := time.Now()
		store := cache.NewMemoryStore(cache.WithClock(func() time.Time { return now }))
		sessions := newSessionDAO(store)

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-old", "user-1", now), time.Minute))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-new", "user-1", now), time.Hour))

		now = now.Add(10 * time.Minute)

		list, err := sessions.ListUserSessions(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "sess-new", list[0].ID)
	})

	t.Run("TouchPreservesExpiry", func(t *testing.T) {
		now := time.Now()
		store := cache.NewMemoryStore(cache.WithClock(func() time.Time { return now }))
		sessions := newSessionDAO(store)
		keys := cache.NewKeyScheme("v1")

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-1", "user-1", now), time.Hour))

		now = now.Add(30 * time.Minute)
		seen := now
		sessions.TouchSession(ctx, "sess-1", seen)

		got, err := sessions.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, seen.UTC().Unix(), got.LastSeen.Unix())

		// Touch must not extend the session beyond its original lifetime.
		ttl, ok := store.TTL(ctx, keys.Session("sess-1"))
		require.True(t, ok)
		assert.LessOrEqual(t, ttl, 30*time.Minute)
	})

	t.Run("RevokeSession", func(t *testing.T) {
		store := cache.NewMemoryStore()
		sessions := newSessionDAO(store)
		now := time.Now()

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-1", "user-1", now), time.Hour))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-2", "user-1", now), time.Hour))

		assert.True(t, sessions.RevokeSession(ctx, "user-1", "sess-1"))
		assert.False(t, sessions.RevokeSession(ctx, "user-1", "sess-1"))

		_, err := sessions.GetSession(ctx, "sess-1")
		assert.ErrorIs(t, err, errors.ErrSessionNotFound)

		list, err := sessions.ListUserSessions(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "sess-2", list[0].ID)
	})

	t.Run("RevokeAllSessions", func(t *testing.T) {
		store := cache.NewMemoryStore()
		sessions := newSessionDAO(store)
		now := time.Now()

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-1", "user-1", now), time.Hour))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-2", "user-1", now), time.Hour))
		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-3", "user-2", now), time.Hour))

		assert.Equal(t, 2, sessions.RevokeAllSessions(ctx, "user-1"))

		list, err := sessions.ListUserSessions(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list)

		// The other user's session is untouched.
		_, err = sessions.GetSession(ctx, "sess-3")
		assert.NoError(t, err)

		// No session keys of user-1 survive in any shape.
		assert.Empty(t, store.Keys(ctx, "*:session:user:user-1*"))
	})

	t.Run("DegradedStore_TrackingSilentlyOff", func(t *testing.T) {
		store := cache.NewRedisStore(nil)
		sessions := newSessionDAO(store)

		require.NoError(t, sessions.CreateSession(ctx, makeSession("sess-1", "user-1", time.Now()), time.Hour))

		_, err := sessions.GetSession(ctx, "sess-1")
		assert.ErrorIs(t, err, errors.ErrSessionNotFound)

		list, err := sessions.ListUserSessions(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list)

		assert.Equal(t, 0, sessions.RevokeAllSessions(ctx, "user-1"))
	})
}
