// api/service/daos.go
package service

import (
	"context"
	"time"

	"github.com/arbiterhq/arbiter/api/model"
)

// The services consume the DAO layer through these interfaces so tests can
// stand in fakes without a database.

type IUserDAO interface {
	CreateUser(ctx context.Context, user model.User) (string, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SearchUsers(ctx context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error)
	UpdateUser(ctx context.Context, userID string, updates model.UpdateUserRequest) (*model.User, error)
	SetActive(ctx context.Context, userID string, active bool) error
	DeleteUser(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, hashedPassword string) error
	SetVerified(ctx context.Context, userID string) error
}

type IDecisionDAO interface {
	CreateDecision(ctx context.Context, decision model.Decision) (string, error)
	GetDecisionByID(ctx context.Context, decisionID string) (*model.Decision, error)
	FindDecisionByQuery(ctx context.Context, userID, query string) (*model.Decision, error)
	ListUserDecisions(ctx context.Context, userID string, page, pageSize int) (*model.DecisionPage, error)
	UpdateDecision(ctx context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error)
	DeleteDecision(ctx context.Context, decisionID string) error
	GetUserStats(ctx context.Context, userID string) (*model.DecisionStats, error)
}

type ISessionDAO interface {
	CreateSession(ctx context.Context, session model.Session, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]model.Session, error)
	TouchSession(ctx context.Context, sessionID string, at time.Time)
	RevokeSession(ctx context.Context, userID, sessionID string) bool
	RevokeAllSessions(ctx context.Context, userID string) int
}
