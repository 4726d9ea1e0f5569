// api/cache/keys.go
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// blacklistPrefix sits outside the versioned namespace on purpose: revoked
// tokens are durable security state, not cache, and must survive version
// sweeps and keyspace stats.
const blacklistPrefix = "blacklist:token:"

// KeyScheme builds every cache key in the system. All cache keys are
// colon-joined and carry a version prefix so a deploy that changes a cached
// shape can bump the version and orphan the old entries instead of decoding
// garbage.
type KeyScheme struct {
	version string
}

func NewKeyScheme(version string) KeyScheme {
	if version == "" {
		version = "v1"
	}
	return KeyScheme{version: version}
}

// Version returns the key version prefix.
func (k KeyScheme) Version() string {
	return k.version
}

// Join builds a versioned key from its parts.
func (k KeyScheme) Join(parts ...string) string {
	return k.version + ":" + strings.Join(parts, ":")
}

func (k KeyScheme) User(id string) string {
	return k.Join("user", "id", id)
}

// UserByEmail keys the email lookup by digest so addresses never appear in
// the keyspace.
func (k KeyScheme) UserByEmail(email string) string {
	return k.Join("user", "email", HashString(strings.ToLower(email)))
}

// UserDecisions is one page of a user's decision list. Page and size are
// both part of the key; all pages fall under the user-scoped wildcard.
func (k KeyScheme) UserDecisions(userID string, page, size int) string {
	return k.Join("user", userID, "decisions", fmt.Sprintf("page%d", page), fmt.Sprintf("size%d", size))
}

func (k KeyScheme) UserStats(userID string) string {
	return k.Join("stats", "user", userID)
}

func (k KeyScheme) Decision(id string) string {
	return k.Join("decision", "id", id)
}

// DecisionQuery memoizes the outcome of one user's query text.
func (k KeyScheme) DecisionQuery(userID, query string) string {
	return k.Join("decision", "query", userID, HashString(query))
}

// Session holds one session's data, keyed by session ID alone.
func (k KeyScheme) Session(sessionID string) string {
	return k.Join("session", sessionID)
}

// UserSessions is the aggregate key holding a user's session index.
func (k KeyScheme) UserSessions(userID string) string {
	return k.Join("session", "user", userID)
}

// SessionMarker is the per-session marker key. Its shape keeps individual
// sessions reachable by the user-scoped invalidation patterns.
func (k KeyScheme) SessionMarker(userID, sessionID string) string {
	return k.Join("session", "user", userID, sessionID)
}

func (k KeyScheme) RateLimit(subject, endpoint string) string {
	return k.Join("ratelimit", subject, endpoint)
}

// BlacklistToken keys a revoked token by digest. The raw JWT never appears
// in the keyspace, and the key is unversioned.
func (k KeyScheme) BlacklistToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])[:16]
}

// Temp builds a key for short-lived scratch state.
func (k KeyScheme) Temp(name string) string {
	return k.Join("temp", name)
}

// PasswordResetToken keys a one-time password reset token by digest.
func (k KeyScheme) PasswordResetToken(token string) string {
	return k.Join("temp", "reset", HashString(token))
}

// EmailVerificationToken keys a one-time email verification token by digest.
func (k KeyScheme) EmailVerificationToken(token string) string {
	return k.Join("temp", "verify", HashString(token))
}

// Func builds a memoization key for a named computation and its arguments.
func (k KeyScheme) Func(name string, args ...any) string {
	return k.Join("fn", name, HashArgs(args...))
}

// HashString reduces a string to a short deterministic digest.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// HashArgs reduces an argument list to a short deterministic digest.
// Arguments are serialized as canonical JSON (map keys sorted) before
// hashing, so equal values always produce equal keys. Eight hex characters
// are enough to keep distinct argument sets apart within one function's
// keyspace.
func HashArgs(args ...any) string {
	canonical, err := json.Marshal(args)
	if err != nil {
		canonical = []byte(fmt.Sprintf("%+v", args))
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:8]
}
