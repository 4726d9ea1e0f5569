// api/service/auth_service_test.go
package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/cache"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
)

const testSecret = "auth-service-test-secret"

var testMeta = service.ClientMeta{UserAgent: "arbiter-test/1.0", IP: "203.0.113.7"}

type authFixture struct {
	svc       *service.AuthService
	users     *fakeUserDAO
	sessions  *fakeSessionDAO
	store     cache.Store
	keys      cache.KeyScheme
	tokens    auth.ITokenService
	blacklist auth.IBlacklist
	hasher    *auth.PasswordHasher
}

func newAuthFixture(store cache.Store, users *fakeUserDAO) *authFixture {
	keys := cache.NewKeyScheme("v1")
	blacklist := auth.NewBlacklist(store, keys)
	tokens := auth.NewTokenService(testSecret, 30*time.Minute, 7*24*time.Hour, blacklist)
	sessions := newFakeSessionDAO()
	hasher := auth.NewPasswordHasher()

	svc := service.NewAuthService(users, sessions, tokens, blacklist, hasher,
		store, keys, util.NewValidationUtil(), audit.Noop(),
		util.NewNotificationService(), util.NewEventBus())

	return &authFixture{
		svc:       svc,
		users:     users,
		sessions:  sessions,
		store:     store,
		keys:      keys,
		tokens:    tokens,
		blacklist: blacklist,
		hasher:    hasher,
	}
}

// seedUser returns a stored active user with the given password.
func seedUser(t *testing.T, email, password string) (model.User, *fakeUserDAO) {
	t.Helper()
	hashed, err := auth.NewPasswordHasher().Hash(password)
	require.NoError(t, err)
	user := model.User{
		ID:             "user-1",
		Email:          email,
		HashedPassword: hashed,
		FullName:       "Seed User",
		Role:           model.RoleUser,
		IsActive:       true,
	}
	return user, newFakeUserDAO(user)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		fix := newAuthFixture(cache.NewMemoryStore(), newFakeUserDAO())

		resp, err := fix.svc.Register(ctx, model.RegisterRequest{
			Email:    "new@example.com",
			Password: "secret-pass",
			FullName: "New User",
		}, testMeta)
		require.NoError(t, err)

		assert.Equal(t, "User registered successfully", resp.Message)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)
		assert.Equal(t, model.RoleUser, resp.User.Role)
		assert.True(t, resp.User.IsActive)

		stored, err := fix.users.GetUserByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.True(t, fix.hasher.Compare(stored.HashedPassword, "secret-pass"))

		sessions, _ := fix.sessions.ListUserSessions(ctx, stored.ID)
		assert.Len(t, sessions, 1)

		// The verification token marker is parked in the cache for VerifyEmail.
		assert.Len(t, fix.store.Keys(ctx, "*:temp:verify:*"), 1)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, users := seedUser(t, "taken@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		_, err := fix.svc.Register(ctx, model.RegisterRequest{
			Email:    "taken@example.com",
			Password: "secret-pass",
			FullName: "Copy Cat",
		}, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrUserConflict)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		fix := newAuthFixture(cache.NewMemoryStore(), newFakeUserDAO())

		_, err := fix.svc.Register(ctx, model.RegisterRequest{
			Email:    "not-an-email",
			Password: "secret-pass",
			FullName: "Typo",
		}, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidUserData)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		resp, err := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "secret-pass",
		}, testMeta)
		require.NoError(t, err)

		assert.Equal(t, "Login successful", resp.Message)
		assert.NotNil(t, resp.User.LastLogin)

		sessions, _ := fix.sessions.ListUserSessions(ctx, user.ID)
		require.Len(t, sessions, 1)
		assert.Equal(t, testMeta.UserAgent, sessions[0].UserAgent)

		// Login warms the user cache for the reads that follow it.
		_, hit := fix.store.Get(ctx, fix.keys.User(user.ID))
		assert.True(t, hit)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		_, err := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-pass",
		}, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidCredentials)
	})

	t.Run("UnknownEmailSameError", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		_, wrongPass := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-pass",
		}, testMeta)
		_, unknown := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever-pass",
		}, testMeta)

		// Identical sentinel so responses cannot be used to probe accounts.
		assert.Equal(t, wrongPass, unknown)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		require.NoError(t, users.SetActive(ctx, user.ID, false))

		_, err := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "secret-pass",
		}, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrUserInactive)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, fix *authFixture) *model.AuthResponse {
		t.Helper()
		resp, err := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "secret-pass",
		}, testMeta)
		require.NoError(t, err)
		return resp
	}

	t.Run("RotationRevokesOldToken", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		resp := login(t, fix)

		pair, err := fix.svc.Refresh(ctx, resp.Tokens.RefreshToken, testMeta)
		require.NoError(t, err)
		assert.NotEqual(t, resp.Tokens.RefreshToken, pair.RefreshToken)

		// Replaying the rotated-away token must fail.
		_, err = fix.svc.Refresh(ctx, resp.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrTokenRevoked)

		// The replacement still works.
		_, err = fix.svc.Refresh(ctx, pair.RefreshToken, testMeta)
		assert.NoError(t, err)
	})

	t.Run("RevokedSessionBlocksRefresh", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		resp := login(t, fix)

		fix.sessions.RevokeAllSessions(ctx, user.ID)

		_, err := fix.svc.Refresh(ctx, resp.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrSessionNotFound)
	})

	t.Run("InactiveUserBlocksRefresh", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		resp := login(t, fix)

		require.NoError(t, users.SetActive(ctx, user.ID, false))

		_, err := fix.svc.Refresh(ctx, resp.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrUserInactive)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		_, err := fix.svc.Refresh(ctx, "not-a-jwt", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)
	})

	t.Run("DegradedStoreFailsRotation", func(t *testing.T) {
		// Without a cache the old token cannot be revoked, so rotation
		// refuses to mint a replacement.
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewRedisStore(nil), users)
		resp := login(t, fix)

		_, err := fix.svc.Refresh(ctx, resp.Tokens.RefreshToken, testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrCacheUnavailable)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("RevokesBothTokensAndSession", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		resp, err := fix.svc.Login(ctx, model.LoginRequest{
			Email:    "user@example.com",
			Password: "secret-pass",
		}, testMeta)
		require.NoError(t, err)

		require.NoError(t, fix.svc.Logout(ctx, resp.Tokens.AccessToken, resp.Tokens.RefreshToken, testMeta))

		access := fix.tokens.Verify(ctx, resp.Tokens.AccessToken, auth.TokenTypeAccess)
		assert.Equal(t, auth.TokenRevoked, access.Status)
		refresh := fix.tokens.Verify(ctx, resp.Tokens.RefreshToken, auth.TokenTypeRefresh)
		assert.Equal(t, auth.TokenRevoked, refresh.Status)

		sessions, _ := fix.sessions.ListUserSessions(ctx, user.ID)
		assert.Empty(t, sessions)
	})

	t.Run("BothTokensInvalid", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		err := fix.svc.Logout(ctx, "garbage", "also-garbage", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)
	})
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("RequestLeavesSingleUseMarker", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		require.NoError(t, fix.svc.RequestPasswordReset(ctx, "user@example.com", testMeta))
		assert.Len(t, fix.store.Keys(ctx, "*:temp:reset:*"), 1)
	})

	t.Run("UnknownEmailSilentlyAccepted", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		require.NoError(t, fix.svc.RequestPasswordReset(ctx, "ghost@example.com", testMeta))
		assert.Empty(t, fix.store.Keys(ctx, "*:temp:reset:*"))
	})

	t.Run("DegradedStoreFailsClosed", func(t *testing.T) {
		_, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewRedisStore(nil), users)

		err := fix.svc.RequestPasswordReset(ctx, "user@example.com", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrCacheUnavailable)
	})

	t.Run("ResetConsumesMarker", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)
		fix.sessions.CreateSession(ctx, model.Session{ID: "sess-1", UserID: user.ID}, time.Hour)

		token, err := fix.tokens.CreatePasswordResetToken(user.ID, user.Email)
		require.NoError(t, err)
		require.True(t, fix.store.Set(ctx, fix.keys.PasswordResetToken(token), user.ID, time.Hour))

		require.NoError(t, fix.svc.ResetPassword(ctx, token, "fresh-password", testMeta))

		stored, err := fix.users.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, fix.hasher.Compare(stored.HashedPassword, "fresh-password"))

		// A changed password ends every open session.
		sessions, _ := fix.sessions.ListUserSessions(ctx, user.ID)
		assert.Empty(t, sessions)

		// The marker is spent, so the same token cannot be replayed.
		err = fix.svc.ResetPassword(ctx, token, "another-password", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)
	})

	t.Run("NoMarkerFailsClosed", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		token, err := fix.tokens.CreatePasswordResetToken(user.ID, user.Email)
		require.NoError(t, err)

		err = fix.svc.ResetPassword(ctx, token, "fresh-password", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)

		stored, _ := fix.users.GetUserByID(ctx, user.ID)
		assert.True(t, fix.hasher.Compare(stored.HashedPassword, "secret-pass"))
	})

	t.Run("ShortPasswordRejected", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		token, err := fix.tokens.CreatePasswordResetToken(user.ID, user.Email)
		require.NoError(t, err)
		require.True(t, fix.store.Set(ctx, fix.keys.PasswordResetToken(token), user.ID, time.Hour))

		err = fix.svc.ResetPassword(ctx, token, "short", testMeta)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidUserData)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("ConsumesMarker", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		token, err := fix.tokens.CreateEmailVerificationToken(user.ID, user.Email)
		require.NoError(t, err)
		require.True(t, fix.store.Set(ctx, fix.keys.EmailVerificationToken(token), user.ID, time.Hour))

		require.NoError(t, fix.svc.VerifyEmail(ctx, token))

		stored, _ := fix.users.GetUserByID(ctx, user.ID)
		assert.True(t, stored.IsVerified)

		err = fix.svc.VerifyEmail(ctx, token)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)
	})

	t.Run("WrongTokenType", func(t *testing.T) {
		user, users := seedUser(t, "user@example.com", "secret-pass")
		fix := newAuthFixture(cache.NewMemoryStore(), users)

		reset, err := fix.tokens.CreatePasswordResetToken(user.ID, user.Email)
		require.NoError(t, err)

		err = fix.svc.VerifyEmail(ctx, reset)
		assert.ErrorIs(t, err, arbiter_errors.ErrInvalidToken)
	})
}
