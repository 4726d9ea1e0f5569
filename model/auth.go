package model

import "github.com/arbiterhq/arbiter/api/auth"

type AuthResponse struct {
	User    User           `json:"user"`
	Tokens  auth.TokenPair `json:"tokens"`
	Message string         `json:"message,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest carries the refresh token so it can be revoked alongside the
// access token. Clients that lost it can still log out the access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// InvalidateResponse reports the outcome of an admin cache operation.
type InvalidateResponse struct {
	Success     bool   `json:"success"`
	KeysDeleted int    `json:"keys_deleted"`
	Message     string `json:"message"`
}
