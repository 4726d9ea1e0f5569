// api/auth/blacklist.go
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/cache"
	"github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
)

type IBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) bool
	Remove(ctx context.Context, token string) error
}

// Blacklist records revoked tokens until they would have expired anyway.
// Each entry lives exactly as long as the token's remaining lifetime, so
// the blacklist never grows beyond the set of tokens still in flight.
//
// Revocation checks fail open: with the backend down, a revoked token is
// accepted until the backend returns. That window is bounded by the access
// token TTL.
type Blacklist struct {
	store cache.Store
	keys  cache.KeyScheme
}

var _ IBlacklist = &Blacklist{}

func NewBlacklist(store cache.Store, keys cache.KeyScheme) *Blacklist {
	return &Blacklist{store: store, keys: keys}
}

// Add revokes a token until expiresAt. Revoking an already expired token
// is a no-op success.
func (b *Blacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if !b.store.Set(ctx, b.keys.BlacklistToken(token), "1", ttl) {
		logger.Warn("Failed to blacklist token, backend degraded")
		return errors.ErrCacheUnavailable
	}
	logger.Info("Token added to blacklist", zap.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether the token has been revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) bool {
	return b.store.Exists(ctx, b.keys.BlacklistToken(token))
}

// Remove un-revokes a token.
func (b *Blacklist) Remove(ctx context.Context, token string) error {
	b.store.Delete(ctx, b.keys.BlacklistToken(token))
	return nil
}
