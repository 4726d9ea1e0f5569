// api/util/notification_service.go

package util

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
)

// NotificationService is the outbound mail and alert seam. Delivery is a
// log stub until a provider is wired in; callers treat every send as
// best-effort.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// SendVerificationEmail hands the user the email-verification token minted
// at registration.
func (n *NotificationService) SendVerificationEmail(ctx context.Context, user model.User, token string) error {
	logger.Info("Sending verification email",
		zap.String("userID", user.ID),
		zap.Int("tokenLength", len(token)))
	return nil
}

// SendPasswordResetEmail delivers a password reset token. The token itself
// is never logged.
func (n *NotificationService) SendPasswordResetEmail(ctx context.Context, user model.User, token string) error {
	logger.Info("Sending password reset email",
		zap.String("userID", user.ID))
	return nil
}

// NotifyDecisionReady tells the owner their decision finished processing.
func (n *NotificationService) NotifyDecisionReady(ctx context.Context, decision model.Decision) error {
	logger.Info("Notifying decision ready",
		zap.String("decisionID", decision.ID),
		zap.String("userID", decision.UserID),
		zap.String("status", string(decision.Status)))
	return nil
}

// NotifyAdmins raises an operational alert to the administrator channel.
func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Warn("Admin notification", zap.String("message", message))
	return nil
}
