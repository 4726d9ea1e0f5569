// api/controller/auth_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
	"github.com/arbiterhq/arbiter/api/util"
)

type AuthController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// RegisterRoutes registers the API routes. The authn middleware guards the
// endpoints that act on an established session.
func (ac *AuthController) RegisterRoutes(r *gin.RouterGroup, authn gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)
		auth.POST("/refresh", ac.Refresh)
		auth.POST("/password-reset/request", ac.RequestPasswordReset)
		auth.POST("/password-reset/confirm", ac.ResetPassword)
		auth.POST("/verify-email", ac.VerifyEmail)

		auth.POST("/logout", authn, ac.Logout)
		auth.GET("/sessions", authn, ac.ListSessions)
		auth.DELETE("/sessions/:id", authn, ac.RevokeSession)
		auth.DELETE("/sessions", authn, ac.RevokeAllSessions)
	}
}

// Register endpoint
func (ac *AuthController) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid registration data", err)
		return
	}

	resp, err := ac.authService.Register(c, req, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrUserConflict):
			util.RespondWithError(c, http.StatusConflict, "Email already registered", err)
		case errors.Is(err, arbiter_errors.ErrInvalidUserData):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid registration data", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "An error occurred during registration", arbiter_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login endpoint
func (ac *AuthController) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid login data", err)
		return
	}

	resp, err := ac.authService.Login(c, req, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrInvalidCredentials):
			util.RespondWithError(c, http.StatusUnauthorized, "Incorrect email or password", err)
		case errors.Is(err, arbiter_errors.ErrUserInactive):
			util.RespondWithError(c, http.StatusForbidden, "Inactive user", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Login failed", arbiter_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Refresh endpoint rotates a refresh token into a fresh pair.
func (ac *AuthController) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Refresh token is required", err)
		return
	}

	pair, err := ac.authService.Refresh(c, req.RefreshToken, clientMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrTokenExpired):
			util.RespondWithError(c, http.StatusUnauthorized, "Token has expired", err)
		case errors.Is(err, arbiter_errors.ErrTokenRevoked):
			util.RespondWithError(c, http.StatusUnauthorized, "Token has been revoked", err)
		case errors.Is(err, arbiter_errors.ErrSessionNotFound):
			util.RespondWithError(c, http.StatusUnauthorized, "Session has been revoked", err)
		case errors.Is(err, arbiter_errors.ErrInvalidToken):
			util.RespondWithError(c, http.StatusUnauthorized, "Could not validate credentials", err)
		case errors.Is(err, arbiter_errors.ErrUserInactive):
			util.RespondWithError(c, http.StatusForbidden, "Inactive user", err)
		case errors.Is(err, arbiter_errors.ErrCacheUnavailable):
			util.RespondWithError(c, http.StatusServiceUnavailable, "Service temporarily unavailable", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to refresh token", arbiter_errors.ErrInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout endpoint
func (ac *AuthController) Logout(c *gin.Context) {
	var req model.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// No body is fine; only the access token gets revoked then.
		req.RefreshToken = ""
	}
	accessToken, _ := c.Get("accessToken")
	token, _ := accessToken.(string)

	if err := ac.authService.Logout(c, token, req.RefreshToken, clientMeta(c)); err != nil {
		if errors.Is(err, arbiter_errors.ErrInvalidToken) {
			util.RespondWithError(c, http.StatusUnauthorized, "Could not validate credentials", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Logout failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// ListSessions endpoint
func (ac *AuthController) ListSessions(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	sessions, err := ac.authService.ListSessions(c, userID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
}

// RevokeSession endpoint
func (ac *AuthController) RevokeSession(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}
	sessionID := c.Param("id")

	if err := ac.authService.RevokeSession(c, userID, sessionID, clientMeta(c)); err != nil {
		if errors.Is(err, arbiter_errors.ErrSessionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Session not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to revoke session", err)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeAllSessions endpoint
func (ac *AuthController) RevokeAllSessions(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Not authenticated", err)
		return
	}

	revoked, err := ac.authService.RevokeAllSessions(c, userID, clientMeta(c))
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to revoke sessions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": revoked})
}

// RequestPasswordReset endpoint. The response never reveals whether the
// email belongs to an account.
func (ac *AuthController) RequestPasswordReset(c *gin.Context) {
	var req model.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid email", err)
		return
	}

	if err := ac.authService.RequestPasswordReset(c, req.Email, clientMeta(c)); err != nil {
		if errors.Is(err, arbiter_errors.ErrCacheUnavailable) {
			util.RespondWithError(c, http.StatusServiceUnavailable, "Service temporarily unavailable", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to process request", err)
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "If the email exists, a reset link has been sent"})
}

// ResetPassword endpoint
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req model.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid reset data", err)
		return
	}

	if err := ac.authService.ResetPassword(c, req.Token, req.NewPassword, clientMeta(c)); err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrTokenExpired):
			util.RespondWithError(c, http.StatusBadRequest, "Reset token has expired", err)
		case errors.Is(err, arbiter_errors.ErrInvalidToken):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid or already used reset token", err)
		case errors.Is(err, arbiter_errors.ErrInvalidUserData):
			util.RespondWithError(c, http.StatusBadRequest, "Password must be at least 8 characters", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to reset password", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// VerifyEmail endpoint
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Verification token is required", err)
		return
	}

	if err := ac.authService.VerifyEmail(c, req.Token); err != nil {
		switch {
		case errors.Is(err, arbiter_errors.ErrTokenExpired):
			util.RespondWithError(c, http.StatusBadRequest, "Verification token has expired", err)
		case errors.Is(err, arbiter_errors.ErrInvalidToken):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid or already used verification token", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to verify email", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// clientMeta pulls the request attributes carried onto sessions and audit
// events.
func clientMeta(c *gin.Context) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        util.ClientIP(c),
	}
}
