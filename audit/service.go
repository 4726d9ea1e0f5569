// api/audit/service.go
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/api/logging"
)

type Service interface {
	Record(ctx context.Context, event Event)
	Query(ctx context.Context, from, to time.Time, actor, action string) ([]Event, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Record writes an audit event, stamping the time if unset. Failures are
// logged and swallowed; the audit trail is best-effort and must never fail
// the request that produced it.
func (s *service) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.repo.Index(ctx, event); err != nil {
		logger.Warn("Failed to record audit event",
			zap.String("action", event.Action),
			zap.Error(err))
	}
}

func (s *service) Query(ctx context.Context, from, to time.Time, actor, action string) ([]Event, error) {
	return s.repo.Query(ctx, from, to, actor, action)
}

// Detail marshals a free-form payload for Event.Detail. A payload that
// cannot marshal becomes null rather than failing the event.
func Detail(payload any) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// Noop returns a Service that drops every event. Used when the audit
// backend is not configured.
func Noop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) Record(context.Context, Event) {}

func (noopService) Query(context.Context, time.Time, time.Time, string, string) ([]Event, error) {
	return nil, nil
}
