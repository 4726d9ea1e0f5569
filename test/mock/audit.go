// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/arbiterhq/arbiter/api/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func (m *MockAuditService) Query(ctx context.Context, from, to time.Time, actor, action string) ([]audit.Event, error) {
	args := m.Called(ctx, from, to, actor, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Event), args.Error(1)
}
