// api/service/auth_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/audit"
	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/cache"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/util"
)

// ClientMeta carries the request attributes recorded on sessions and audit
// events.
type ClientMeta struct {
	UserAgent string
	IP        string
}

// IAuthService defines the authentication operations.
type IAuthService interface {
	Register(ctx context.Context, req model.RegisterRequest, meta ClientMeta) (*model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest, meta ClientMeta) (*model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*auth.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string, meta ClientMeta) error
	ListSessions(ctx context.Context, userID string) ([]model.Session, error)
	RevokeSession(ctx context.Context, userID, sessionID string, meta ClientMeta) error
	RevokeAllSessions(ctx context.Context, userID string, meta ClientMeta) (int, error)
	RequestPasswordReset(ctx context.Context, email string, meta ClientMeta) error
	ResetPassword(ctx context.Context, token, newPassword string, meta ClientMeta) error
	VerifyEmail(ctx context.Context, token string) error
}

// AuthService handles registration, login, token lifecycle, and sessions.
type AuthService struct {
	userDAO    IUserDAO
	sessionDAO ISessionDAO
	tokens     auth.ITokenService
	blacklist  auth.IBlacklist
	hasher     *auth.PasswordHasher
	store      cache.Store
	keys       cache.KeyScheme
	validation *util.ValidationUtil
	auditSvc   audit.Service
	notifier   *util.NotificationService
	eventBus   *util.EventBus
}

var _ IAuthService = &AuthService{}

func NewAuthService(
	userDAO IUserDAO,
	sessionDAO ISessionDAO,
	tokens auth.ITokenService,
	blacklist auth.IBlacklist,
	hasher *auth.PasswordHasher,
	store cache.Store,
	keys cache.KeyScheme,
	validation *util.ValidationUtil,
	auditSvc audit.Service,
	notifier *util.NotificationService,
	eventBus *util.EventBus,
) *AuthService {
	return &AuthService{
		userDAO:    userDAO,
		sessionDAO: sessionDAO,
		tokens:     tokens,
		blacklist:  blacklist,
		hasher:     hasher,
		store:      store,
		keys:       keys,
		validation: validation,
		auditSvc:   auditSvc,
		notifier:   notifier,
		eventBus:   eventBus,
	}
}

// Register creates the account and signs the user straight in, handing back
// tokens the way login does. A verification token goes out by email.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, meta ClientMeta) (*model.AuthResponse, error) {
	_, err := s.userDAO.GetUserByEmail(ctx, req.Email)
	if err == nil {
		logger.Warn("Registration attempt with existing email")
		return nil, arbiter_errors.ErrUserConflict
	}
	if !errors.Is(err, arbiter_errors.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:          req.Email,
		HashedPassword: hashed,
		FullName:       req.FullName,
		Role:           model.RoleUser,
		IsActive:       true,
	}
	if err := s.validation.ValidateUser(user); err != nil {
		return nil, arbiter_errors.ErrInvalidUserData
	}
	userID, err := s.userDAO.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = userID

	pair, session, err := s.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if verifyToken, err := s.tokens.CreateEmailVerificationToken(userID, user.Email); err == nil {
		s.store.Set(ctx, s.keys.EmailVerificationToken(verifyToken), userID,
			s.tokens.TTLFor(auth.TokenTypeEmailVerification))
		_ = s.notifier.SendVerificationEmail(ctx, user, verifyToken)
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionUserRegister,
		Target:  userID,
		Success: true,
		IP:      meta.IP,
	})
	s.eventBus.Publish(ctx, util.EventUserCreated, user)

	logger.Info("New user registered",
		zap.String("userID", userID),
		zap.String("sessionID", session.ID))
	return &model.AuthResponse{User: user, Tokens: pair, Message: "User registered successfully"}, nil
}

// Login verifies credentials. Unknown email and wrong password produce the
// identical error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, meta ClientMeta) (*model.AuthResponse, error) {
	user, err := s.userDAO.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, arbiter_errors.ErrUserNotFound) {
		s.recordLoginFailure(ctx, req.Email, meta)
		return nil, arbiter_errors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Compare(user.HashedPassword, req.Password) {
		s.recordLoginFailure(ctx, user.ID, meta)
		return nil, arbiter_errors.ErrInvalidCredentials
	}

	if !user.IsActive {
		logger.Warn("Login attempt on inactive account", zap.String("userID", user.ID))
		return nil, arbiter_errors.ErrUserInactive
	}

	if fresh, err := s.userDAO.UpdateLastLogin(ctx, user.ID, time.Now()); err == nil {
		user = fresh
		// Warm the cache: the login response reads this user again almost
		// immediately.
		s.store.Set(ctx, s.keys.User(user.ID), *user, cache.TTLLong)
	}

	pair, session, err := s.openSession(ctx, *user, meta)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   user.ID,
		Action:  audit.ActionLoginSuccess,
		Target:  session.ID,
		Success: true,
		IP:      meta.IP,
	})

	logger.Info("User logged in",
		zap.String("userID", user.ID),
		zap.String("sessionID", session.ID))
	return &model.AuthResponse{User: *user, Tokens: pair, Message: "Login successful"}, nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, subject string, meta ClientMeta) {
	s.auditSvc.Record(ctx, audit.Event{
		Actor:   subject,
		Action:  audit.ActionLoginFailure,
		Success: false,
		IP:      meta.IP,
	})
}

// openSession creates the session record and mints the token pair bound to
// it.
func (s *AuthService) openSession(ctx context.Context, user model.User, meta ClientMeta) (auth.TokenPair, model.Session, error) {
	now := time.Now().UTC()
	session := model.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := s.sessionDAO.CreateSession(ctx, session, s.tokens.TTLFor(auth.TokenTypeRefresh)); err != nil {
		return auth.TokenPair{}, model.Session{}, err
	}

	pair, err := s.tokens.CreateTokenPair(user.ID, user.Email, string(user.Role), session.ID)
	if err != nil {
		return auth.TokenPair{}, model.Session{}, err
	}
	return pair, session, nil
}

// Refresh rotates a refresh token: the old token is revoked for its
// remaining lifetime and a new pair is issued against the same session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*auth.TokenPair, error) {
	res := s.tokens.Verify(ctx, refreshToken, auth.TokenTypeRefresh)
	switch res.Status {
	case auth.TokenValid:
	case auth.TokenExpired:
		return nil, arbiter_errors.ErrTokenExpired
	case auth.TokenRevoked:
		return nil, arbiter_errors.ErrTokenRevoked
	default:
		return nil, arbiter_errors.ErrInvalidToken
	}
	claims := res.Claims

	user, err := s.userDAO.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, arbiter_errors.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, arbiter_errors.ErrUserInactive
	}

	// Sessions gate refresh only while the store is reachable. A degraded
	// cache must not lock every user out, so it falls back to pure JWT
	// validity.
	sessionID := claims.ID
	if s.store.Ping(ctx) == nil {
		session, err := s.sessionDAO.GetSession(ctx, sessionID)
		if err != nil {
			logger.Warn("Refresh with no live session",
				zap.String("userID", user.ID),
				zap.String("sessionID", sessionID))
			return nil, arbiter_errors.ErrSessionNotFound
		}
		session.LastSeen = time.Now().UTC()
		// Re-creating extends the session to the new refresh lifetime.
		if err := s.sessionDAO.CreateSession(ctx, *session, s.tokens.TTLFor(auth.TokenTypeRefresh)); err != nil {
			return nil, err
		}
	}

	if claims.ExpiresAt != nil {
		if err := s.blacklist.Add(ctx, refreshToken, claims.ExpiresAt.Time); err != nil {
			// Rotation must not hand out a new pair while the old refresh
			// token stays usable.
			return nil, arbiter_errors.ErrCacheUnavailable
		}
	}

	pair, err := s.tokens.CreateTokenPair(user.ID, user.Email, string(user.Role), sessionID)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   user.ID,
		Action:  audit.ActionTokenRefresh,
		Target:  sessionID,
		Success: true,
		IP:      meta.IP,
	})
	return &pair, nil
}

// Logout revokes both tokens for their remaining lifetimes and drops the
// session named by the refresh token. Tokens that fail verification are
// simply skipped; logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string, meta ClientMeta) error {
	var userID string

	if res := s.tokens.Verify(ctx, accessToken, auth.TokenTypeAccess); res.Status == auth.TokenValid {
		userID = res.Claims.Subject
		if res.Claims.ExpiresAt != nil {
			if err := s.blacklist.Add(ctx, accessToken, res.Claims.ExpiresAt.Time); err != nil {
				return err
			}
		}
	}

	if res := s.tokens.Verify(ctx, refreshToken, auth.TokenTypeRefresh); res.Status == auth.TokenValid {
		if userID == "" {
			userID = res.Claims.Subject
		}
		if res.Claims.ExpiresAt != nil {
			if err := s.blacklist.Add(ctx, refreshToken, res.Claims.ExpiresAt.Time); err != nil {
				return err
			}
		}
		if res.Claims.ID != "" {
			s.sessionDAO.RevokeSession(ctx, res.Claims.Subject, res.Claims.ID)
		}
	}

	if userID == "" {
		return arbiter_errors.ErrInvalidToken
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionLogout,
		Success: true,
		IP:      meta.IP,
	})
	logger.Info("User logged out", zap.String("userID", userID))
	return nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	return s.sessionDAO.ListUserSessions(ctx, userID)
}

func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string, meta ClientMeta) error {
	if !s.sessionDAO.RevokeSession(ctx, userID, sessionID) {
		return arbiter_errors.ErrSessionNotFound
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionSessionRevoke,
		Target:  sessionID,
		Success: true,
		IP:      meta.IP,
	})
	s.eventBus.Publish(ctx, util.EventSessionRevoked, sessionID)
	return nil
}

func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string, meta ClientMeta) (int, error) {
	revoked := s.sessionDAO.RevokeAllSessions(ctx, userID)

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionSessionRevoke,
		Target:  "all",
		Success: true,
		IP:      meta.IP,
	})
	s.eventBus.Publish(ctx, util.EventSessionRevoked, userID)
	return revoked, nil
}

// RequestPasswordReset mints a reset token for the account, if one exists.
// The response is identical either way; only the audit trail knows.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, meta ClientMeta) error {
	user, err := s.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, arbiter_errors.ErrUserNotFound) {
			logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := s.tokens.CreatePasswordResetToken(user.ID, user.Email)
	if err != nil {
		return err
	}
	// The marker makes the token single-use: ResetPassword consumes it.
	if !s.store.Set(ctx, s.keys.PasswordResetToken(token), user.ID,
		s.tokens.TTLFor(auth.TokenTypePasswordReset)) {
		return arbiter_errors.ErrCacheUnavailable
	}

	_ = s.notifier.SendPasswordResetEmail(ctx, *user, token)
	s.auditSvc.Record(ctx, audit.Event{
		Actor:   user.ID,
		Action:  audit.ActionPasswordResetRequest,
		Success: true,
		IP:      meta.IP,
	})
	return nil
}

// ResetPassword consumes a reset token. Unlike most cache reads this fails
// closed: no reachable marker, no reset.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string, meta ClientMeta) error {
	res := s.tokens.Verify(ctx, token, auth.TokenTypePasswordReset)
	switch res.Status {
	case auth.TokenValid:
	case auth.TokenExpired:
		return arbiter_errors.ErrTokenExpired
	default:
		return arbiter_errors.ErrInvalidToken
	}

	marker := s.keys.PasswordResetToken(token)
	if _, ok := s.store.Get(ctx, marker); !ok {
		logger.Warn("Password reset with spent or unknown token",
			zap.String("userID", res.Claims.Subject))
		return arbiter_errors.ErrInvalidToken
	}

	if len(newPassword) < 8 {
		return arbiter_errors.ErrInvalidUserData
	}
	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.userDAO.UpdatePassword(ctx, res.Claims.Subject, hashed); err != nil {
		return err
	}

	s.store.Delete(ctx, marker)
	if res.Claims.ExpiresAt != nil {
		_ = s.blacklist.Add(ctx, token, res.Claims.ExpiresAt.Time)
	}
	// A changed password invalidates every open session.
	s.sessionDAO.RevokeAllSessions(ctx, res.Claims.Subject)

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   res.Claims.Subject,
		Action:  audit.ActionPasswordReset,
		Success: true,
		IP:      meta.IP,
	})
	logger.Info("Password reset completed", zap.String("userID", res.Claims.Subject))
	return nil
}

// VerifyEmail consumes an email verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	res := s.tokens.Verify(ctx, token, auth.TokenTypeEmailVerification)
	switch res.Status {
	case auth.TokenValid:
	case auth.TokenExpired:
		return arbiter_errors.ErrTokenExpired
	default:
		return arbiter_errors.ErrInvalidToken
	}

	marker := s.keys.EmailVerificationToken(token)
	if _, ok := s.store.Get(ctx, marker); !ok {
		return arbiter_errors.ErrInvalidToken
	}

	if err := s.userDAO.SetVerified(ctx, res.Claims.Subject); err != nil {
		return err
	}

	s.store.Delete(ctx, marker)
	if res.Claims.ExpiresAt != nil {
		_ = s.blacklist.Add(ctx, token, res.Claims.ExpiresAt.Time)
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   res.Claims.Subject,
		Action:  audit.ActionEmailVerified,
		Success: true,
	})
	return nil
}
