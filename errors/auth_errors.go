// api/errors/auth_errors.go
package errors

import "errors"

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrForbidden          = errors.New("not enough permissions")
	ErrSessionNotFound    = errors.New("session not found")
)
