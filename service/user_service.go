// api/service/user_service.go
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/audit"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/util"
)

// IUserService defines the interface for user profile operations.
type IUserService interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error)
	UpdateUser(ctx context.Context, userID string, updates model.UpdateUserRequest, meta ClientMeta) (*model.User, error)
	DeactivateUser(ctx context.Context, userID, actorID string, meta ClientMeta) error
	DeleteUser(ctx context.Context, userID, actorID string, meta ClientMeta) error
}

// UserService handles business logic for user operations.
type UserService struct {
	userDAO    IUserDAO
	sessionDAO ISessionDAO
	auditSvc   audit.Service
	eventBus   *util.EventBus
}

var _ IUserService = &UserService{}

func NewUserService(userDAO IUserDAO, sessionDAO ISessionDAO, auditSvc audit.Service, eventBus *util.EventBus) *UserService {
	service := &UserService{
		userDAO:    userDAO,
		sessionDAO: sessionDAO,
		auditSvc:   auditSvc,
		eventBus:   eventBus,
	}

	eventBus.Subscribe(util.EventUserCreated, service.handleUserCreated)

	return service
}

func (s *UserService) handleUserCreated(ctx context.Context, event util.Event) error {
	user, ok := event.Payload.(model.User)
	if !ok {
		return nil
	}
	logger.Info("User created event received", zap.String("userID", user.ID))
	return nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userDAO.GetUserByID(ctx, userID)
}

// ListUsers pages through accounts for the admin surface.
func (s *UserService) ListUsers(ctx context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error) {
	return s.userDAO.SearchUsers(ctx, criteria)
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, updates model.UpdateUserRequest, meta ClientMeta) (*model.User, error) {
	updated, err := s.userDAO.UpdateUser(ctx, userID, updates)
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionUserUpdate,
		Target:  userID,
		Success: true,
		IP:      meta.IP,
	})
	s.eventBus.Publish(ctx, util.EventUserUpdated, *updated)
	return updated, nil
}

// DeactivateUser turns the account off without destroying it, and ends every
// open session so the change bites immediately.
func (s *UserService) DeactivateUser(ctx context.Context, userID, actorID string, meta ClientMeta) error {
	if err := s.userDAO.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.sessionDAO.RevokeAllSessions(ctx, userID)

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   actorID,
		Action:  audit.ActionUserDeactivate,
		Target:  userID,
		Success: true,
		IP:      meta.IP,
	})
	s.eventBus.Publish(ctx, util.EventUserDeactivated, userID)

	logger.Info("User deactivated",
		zap.String("userID", userID),
		zap.String("actorID", actorID))
	return nil
}

// DeleteUser removes the account outright. Admin surface only; ordinary
// account closure goes through DeactivateUser.
func (s *UserService) DeleteUser(ctx context.Context, userID, actorID string, meta ClientMeta) error {
	if err := s.userDAO.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.sessionDAO.RevokeAllSessions(ctx, userID)

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   actorID,
		Action:  audit.ActionUserDelete,
		Target:  userID,
		Success: true,
		IP:      meta.IP,
	})

	logger.Info("User deleted",
		zap.String("userID", userID),
		zap.String("actorID", actorID))
	return nil
}
