// api/service/fakes_test.go
package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	"github.com/arbiterhq/arbiter/api/model"
)

// fakeUserDAO keeps users in a map so auth flows can run without Mongo.
type fakeUserDAO struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserDAO(seed ...model.User) *fakeUserDAO {
	dao := &fakeUserDAO{users: map[string]model.User{}}
	for _, u := range seed {
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		dao.users[u.ID] = u
	}
	return dao
}

func (f *fakeUserDAO) CreateUser(_ context.Context, user model.User) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return "", arbiter_errors.ErrUserConflict
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserDAO) GetUserByID(_ context.Context, userID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, arbiter_errors.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeUserDAO) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, arbiter_errors.ErrUserNotFound
}

func (f *fakeUserDAO) SearchUsers(_ context.Context, criteria model.UserSearchCriteria) (*model.UserPage, error) {
	if criteria.Page < 1 || criteria.PageSize < 1 || criteria.PageSize > 100 {
		return nil, arbiter_errors.ErrInvalidPagination
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	matches := make([]model.User, 0, len(f.users))
	for _, user := range f.users {
		if criteria.Role != "" && user.Role != criteria.Role {
			continue
		}
		if criteria.IsActive != nil && user.IsActive != *criteria.IsActive {
			continue
		}
		matches = append(matches, user)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})

	total := int64(len(matches))
	start := (criteria.Page - 1) * criteria.PageSize
	if start > len(matches) {
		start = len(matches)
	}
	end := start + criteria.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return &model.UserPage{Items: matches[start:end], Total: total, Page: criteria.Page, PageSize: criteria.PageSize}, nil
}

func (f *fakeUserDAO) UpdateUser(_ context.Context, userID string, updates model.UpdateUserRequest) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, arbiter_errors.ErrUserNotFound
	}
	if updates.FullName != nil {
		user.FullName = *updates.FullName
	}
	if updates.Metadata != nil {
		user.Metadata = updates.Metadata
	}
	user.UpdatedAt = time.Now().UTC()
	f.users[userID] = user
	return &user, nil
}

func (f *fakeUserDAO) SetActive(_ context.Context, userID string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return arbiter_errors.ErrUserNotFound
	}
	user.IsActive = active
	f.users[userID] = user
	return nil
}

func (f *fakeUserDAO) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return arbiter_errors.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserDAO) UpdateLastLogin(_ context.Context, userID string, at time.Time) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, arbiter_errors.ErrUserNotFound
	}
	user.LastLogin = &at
	f.users[userID] = user
	return &user, nil
}

func (f *fakeUserDAO) UpdatePassword(_ context.Context, userID, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return arbiter_errors.ErrUserNotFound
	}
	user.HashedPassword = hashedPassword
	f.users[userID] = user
	return nil
}

func (f *fakeUserDAO) SetVerified(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return arbiter_errors.ErrUserNotFound
	}
	user.IsVerified = true
	f.users[userID] = user
	return nil
}

// fakeDecisionDAO keeps decisions in insertion order for list assertions.
type fakeDecisionDAO struct {
	mu        sync.Mutex
	decisions map[string]model.Decision
	order     []string
	stats     model.DecisionStats
}

func newFakeDecisionDAO() *fakeDecisionDAO {
	return &fakeDecisionDAO{decisions: map[string]model.Decision{}}
}

func (f *fakeDecisionDAO) CreateDecision(_ context.Context, decision model.Decision) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	if decision.Status == "" {
		decision.Status = model.DecisionPending
	}
	decision.CreatedAt = time.Now().UTC()
	decision.UpdatedAt = decision.CreatedAt
	f.decisions[decision.ID] = decision
	f.order = append(f.order, decision.ID)
	return decision.ID, nil
}

func (f *fakeDecisionDAO) GetDecisionByID(_ context.Context, decisionID string) (*model.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	decision, ok := f.decisions[decisionID]
	if !ok {
		return nil, arbiter_errors.ErrDecisionNotFound
	}
	return &decision, nil
}

func (f *fakeDecisionDAO) FindDecisionByQuery(_ context.Context, userID, query string) (*model.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.order) - 1; i >= 0; i-- {
		d := f.decisions[f.order[i]]
		if d.UserID == userID && d.Query == query && d.Status == model.DecisionCompleted {
			return &d, nil
		}
	}
	return nil, arbiter_errors.ErrDecisionNotFound
}

func (f *fakeDecisionDAO) ListUserDecisions(_ context.Context, userID string, page, pageSize int) (*model.DecisionPage, error) {
	if page < 1 || pageSize < 1 || pageSize > 100 {
		return nil, arbiter_errors.ErrInvalidPagination
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.Decision
	for i := len(f.order) - 1; i >= 0; i-- {
		if d := f.decisions[f.order[i]]; d.UserID == userID {
			items = append(items, d)
		}
	}
	total := int64(len(items))
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return &model.DecisionPage{Items: items[start:end], Total: total, Page: page, PageSize: pageSize}, nil
}

func (f *fakeDecisionDAO) UpdateDecision(_ context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	decision, ok := f.decisions[decisionID]
	if !ok {
		return nil, arbiter_errors.ErrDecisionNotFound
	}
	decision.Status = updates.Status
	if updates.Result != nil {
		decision.Result = updates.Result
	}
	if updates.Confidence != nil {
		decision.Confidence = *updates.Confidence
	}
	if updates.ErrorMessage != "" {
		decision.ErrorMessage = updates.ErrorMessage
	}
	decision.UpdatedAt = time.Now().UTC()
	if updates.Status == model.DecisionCompleted || updates.Status == model.DecisionFailed {
		now := time.Now().UTC()
		decision.CompletedAt = &now
	}
	f.decisions[decisionID] = decision
	return &decision, nil
}

func (f *fakeDecisionDAO) DeleteDecision(_ context.Context, decisionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.decisions[decisionID]; !ok {
		return arbiter_errors.ErrDecisionNotFound
	}
	delete(f.decisions, decisionID)
	return nil
}

func (f *fakeDecisionDAO) GetUserStats(_ context.Context, userID string) (*model.DecisionStats, error) {
	stats := f.stats
	return &stats, nil
}

// fakeSessionDAO mirrors the cache-backed DAO minus TTL handling.
type fakeSessionDAO struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionDAO() *fakeSessionDAO {
	return &fakeSessionDAO{sessions: map[string]model.Session{}}
}

func (f *fakeSessionDAO) CreateSession(_ context.Context, session model.Session, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionDAO) GetSession(_ context.Context, sessionID string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, arbiter_errors.ErrSessionNotFound
	}
	return &session, nil
}

func (f *fakeSessionDAO) ListUserSessions(_ context.Context, userID string) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionDAO) TouchSession(_ context.Context, sessionID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		s.LastSeen = at
		f.sessions[sessionID] = s
	}
}

func (f *fakeSessionDAO) RevokeSession(_ context.Context, userID, sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok || s.UserID != userID {
		return false
	}
	delete(f.sessions, sessionID)
	return true
}

func (f *fakeSessionDAO) RevokeAllSessions(_ context.Context, userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	revoked := 0
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
			revoked++
		}
	}
	return revoked
}
