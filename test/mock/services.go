// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arbiterhq/arbiter/api/auth"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/service"
)

// MockAuthService is a mock implementation of service.IAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req model.RegisterRequest, meta service.ClientMeta) (*model.AuthResponse, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req model.LoginRequest, meta service.ClientMeta) (*model.AuthResponse, error) {
	args := m.Called(ctx, req, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string, meta service.ClientMeta) (*auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken, refreshToken string, meta service.ClientMeta) error {
	args := m.Called(ctx, accessToken, refreshToken, meta)
	return args.Error(0)
}

func (m *MockAuthService) ListSessions(ctx context.Context, userID string) ([]model.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Session), args.Error(1)
}

func (m *MockAuthService) RevokeSession(ctx context.Context, userID, sessionID string, meta service.ClientMeta) error {
	args := m.Called(ctx, userID, sessionID, meta)
	return args.Error(0)
}

func (m *MockAuthService) RevokeAllSessions(ctx context.Context, userID string, meta service.ClientMeta) (int, error) {
	args := m.Called(ctx, userID, meta)
	return args.Int(0), args.Error(1)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string, meta service.ClientMeta) error {
	args := m.Called(ctx, email, meta)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string, meta service.ClientMeta) error {
	args := m.Called(ctx, token, newPassword, meta)
	return args.Error(0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockUserService is a mock implementation of service.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserPage), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, userID string, updates model.UpdateUserRequest, meta service.ClientMeta) (*model.User, error) {
	args := m.Called(ctx, userID, updates, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeactivateUser(ctx context.Context, userID, actorID string, meta service.ClientMeta) error {
	args := m.Called(ctx, userID, actorID, meta)
	return args.Error(0)
}

func (m *MockUserService) DeleteUser(ctx context.Context, userID, actorID string, meta service.ClientMeta) error {
	args := m.Called(ctx, userID, actorID, meta)
	return args.Error(0)
}

// MockDecisionService is a mock implementation of service.IDecisionService
type MockDecisionService struct {
	mock.Mock
}

func (m *MockDecisionService) SubmitDecision(ctx context.Context, userID string, req model.CreateDecisionRequest) (*model.Decision, bool, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Decision), args.Bool(1), args.Error(2)
}

func (m *MockDecisionService) GetDecision(ctx context.Context, userID, decisionID string, isAdmin bool) (*model.Decision, error) {
	args := m.Called(ctx, userID, decisionID, isAdmin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Decision), args.Error(1)
}

func (m *MockDecisionService) ListDecisions(ctx context.Context, userID string, page, pageSize int) (*model.DecisionPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DecisionPage), args.Error(1)
}

func (m *MockDecisionService) GetStats(ctx context.Context, userID string) (*model.DecisionStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DecisionStats), args.Error(1)
}

func (m *MockDecisionService) UpdateDecision(ctx context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error) {
	args := m.Called(ctx, decisionID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Decision), args.Error(1)
}

func (m *MockDecisionService) CancelDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error) {
	args := m.Called(ctx, userID, decisionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Decision), args.Error(1)
}

func (m *MockDecisionService) DeleteDecision(ctx context.Context, userID, decisionID string, isAdmin bool, meta service.ClientMeta) error {
	args := m.Called(ctx, userID, decisionID, isAdmin, meta)
	return args.Error(0)
}

// MockCacheAdminService is a mock implementation of service.ICacheAdminService
type MockCacheAdminService struct {
	mock.Mock
}

func (m *MockCacheAdminService) Stats(ctx context.Context) service.CacheStatsReport {
	args := m.Called(ctx)
	return args.Get(0).(service.CacheStatsReport)
}

func (m *MockCacheAdminService) InvalidateUser(ctx context.Context, userID, actorID string, meta service.ClientMeta) int {
	args := m.Called(ctx, userID, actorID, meta)
	return args.Int(0)
}

func (m *MockCacheAdminService) InvalidateDecision(ctx context.Context, decisionID, actorID string, meta service.ClientMeta) int {
	args := m.Called(ctx, decisionID, actorID, meta)
	return args.Int(0)
}

func (m *MockCacheAdminService) InvalidatePattern(ctx context.Context, pattern, actorID string, meta service.ClientMeta) int {
	args := m.Called(ctx, pattern, actorID, meta)
	return args.Int(0)
}

func (m *MockCacheAdminService) Flush(ctx context.Context, actorID string, meta service.ClientMeta) (int, error) {
	args := m.Called(ctx, actorID, meta)
	return args.Int(0), args.Error(1)
}
