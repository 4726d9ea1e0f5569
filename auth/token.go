// api/auth/token.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/api/logging"
)

// TokenType tags what a token is good for. Verification rejects a token
// presented for the wrong purpose.
type TokenType string

const (
	TokenTypeAccess            TokenType = "access"
	TokenTypeRefresh           TokenType = "refresh"
	TokenTypePasswordReset     TokenType = "password_reset"
	TokenTypeEmailVerification TokenType = "email_verification"
)

// TokenStatus is the outcome of verifying a token. Handlers switch on it
// instead of matching error strings.
type TokenStatus int

const (
	TokenValid TokenStatus = iota
	TokenExpired
	TokenRevoked
	TokenMalformed
)

func (s TokenStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	default:
		return "malformed"
	}
}

// Claims is the JWT payload. Access tokens carry email and role; refresh
// and one-time tokens keep the payload minimal.
type Claims struct {
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role,omitempty"`
	Type  TokenType `json:"type"`
	jwt.RegisteredClaims
}

// VerifyResult pairs the verification status with the decoded claims.
// Claims is non-nil only when Status is TokenValid.
type VerifyResult struct {
	Status TokenStatus
	Claims *Claims
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type ITokenService interface {
	CreateAccessToken(userID, email, role string) (string, error)
	CreateRefreshToken(userID, sessionID string) (string, error)
	CreatePasswordResetToken(userID, email string) (string, error)
	CreateEmailVerificationToken(userID, email string) (string, error)
	CreateTokenPair(userID, email, role, sessionID string) (TokenPair, error)
	Verify(ctx context.Context, token string, want TokenType) VerifyResult
	TTLFor(tokenType TokenType) time.Duration
}

// TokenService issues and verifies HS256 JWTs. Every verification also
// consults the revocation blacklist.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
	blacklist  IBlacklist
}

var _ ITokenService = &TokenService{}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, blacklist IBlacklist) *TokenService {
	if accessTTL == 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   time.Hour,
		verifyTTL:  24 * time.Hour,
		blacklist:  blacklist,
	}
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

func (s *TokenService) newClaims(userID string, tokenType TokenType, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

// CreateAccessToken issues a short-lived token carrying identity claims.
func (s *TokenService) CreateAccessToken(userID, email, role string) (string, error) {
	claims := s.newClaims(userID, TokenTypeAccess, s.accessTTL)
	claims.Email = email
	claims.Role = role
	signed, err := s.sign(claims)
	if err != nil {
		return "", err
	}
	logger.Debug("Created access token", zap.String("user_id", userID))
	return signed, nil
}

// CreateRefreshToken issues a long-lived token with a minimal payload. The
// session ID rides in the jti claim so refresh and logout can find the
// session the token belongs to.
func (s *TokenService) CreateRefreshToken(userID, sessionID string) (string, error) {
	claims := s.newClaims(userID, TokenTypeRefresh, s.refreshTTL)
	claims.ID = sessionID
	return s.sign(claims)
}

func (s *TokenService) CreatePasswordResetToken(userID, email string) (string, error) {
	claims := s.newClaims(userID, TokenTypePasswordReset, s.resetTTL)
	claims.Email = email
	signed, err := s.sign(claims)
	if err != nil {
		return "", err
	}
	logger.Info("Created password reset token", zap.String("user_id", userID))
	return signed, nil
}

func (s *TokenService) CreateEmailVerificationToken(userID, email string) (string, error) {
	claims := s.newClaims(userID, TokenTypeEmailVerification, s.verifyTTL)
	claims.Email = email
	signed, err := s.sign(claims)
	if err != nil {
		return "", err
	}
	logger.Info("Created email verification token", zap.String("user_id", userID))
	return signed, nil
}

// CreateTokenPair issues the access and refresh tokens handed out on login.
func (s *TokenService) CreateTokenPair(userID, email, role, sessionID string) (TokenPair, error) {
	access, err := s.CreateAccessToken(userID, email, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.CreateRefreshToken(userID, sessionID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// Verify checks signature, expiry, revocation, and token type, in that
// order. A revoked token reports TokenRevoked even when presented for the
// wrong purpose.
func (s *TokenService) Verify(ctx context.Context, token string, want TokenType) VerifyResult {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return VerifyResult{Status: TokenExpired}
		}
		logger.Debug("Token failed verification", zap.Error(err))
		return VerifyResult{Status: TokenMalformed}
	}

	if s.blacklist != nil && s.blacklist.IsRevoked(ctx, token) {
		logger.Warn("Attempt to use revoked token", zap.String("user_id", claims.Subject))
		return VerifyResult{Status: TokenRevoked}
	}

	if claims.Type != want {
		logger.Warn("Token type mismatch",
			zap.String("want", string(want)),
			zap.String("got", string(claims.Type)))
		return VerifyResult{Status: TokenMalformed}
	}

	return VerifyResult{Status: TokenValid, Claims: claims}
}

// TTLFor returns the issue lifetime for a token type.
func (s *TokenService) TTLFor(tokenType TokenType) time.Duration {
	switch tokenType {
	case TokenTypeRefresh:
		return s.refreshTTL
	case TokenTypePasswordReset:
		return s.resetTTL
	case TokenTypeEmailVerification:
		return s.verifyTTL
	default:
		return s.accessTTL
	}
}
