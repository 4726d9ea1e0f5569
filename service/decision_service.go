// api/service/decision_service.go
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/api/audit"
	arbiter_errors "github.com/arbiterhq/arbiter/api/errors"
	logger "github.com/arbiterhq/arbiter/api/logging"
	"github.com/arbiterhq/arbiter/api/model"
	"github.com/arbiterhq/arbiter/api/util"
)

// IDecisionService defines the decision lifecycle operations.
type IDecisionService interface {
	SubmitDecision(ctx context.Context, userID string, req model.CreateDecisionRequest) (*model.Decision, bool, error)
	GetDecision(ctx context.Context, userID, decisionID string, isAdmin bool) (*model.Decision, error)
	ListDecisions(ctx context.Context, userID string, page, pageSize int) (*model.DecisionPage, error)
	GetStats(ctx context.Context, userID string) (*model.DecisionStats, error)
	UpdateDecision(ctx context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error)
	CancelDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error)
	DeleteDecision(ctx context.Context, userID, decisionID string, isAdmin bool, meta ClientMeta) error
}

// DecisionService owns submission, the read surface, and the status
// transitions a pipeline worker reports. The analysis pipeline itself lives
// elsewhere; this service only brokers its state.
type DecisionService struct {
	decisionDAO IDecisionDAO
	validation  *util.ValidationUtil
	auditSvc    audit.Service
	notifier    *util.NotificationService
	eventBus    *util.EventBus
}

var _ IDecisionService = &DecisionService{}

func NewDecisionService(
	decisionDAO IDecisionDAO,
	validation *util.ValidationUtil,
	auditSvc audit.Service,
	notifier *util.NotificationService,
	eventBus *util.EventBus,
) *DecisionService {
	service := &DecisionService{
		decisionDAO: decisionDAO,
		validation:  validation,
		auditSvc:    auditSvc,
		notifier:    notifier,
		eventBus:    eventBus,
	}

	eventBus.Subscribe(util.EventDecisionUpdated, service.handleDecisionUpdated)

	return service
}

func (s *DecisionService) handleDecisionUpdated(ctx context.Context, event util.Event) error {
	decision, ok := event.Payload.(model.Decision)
	if !ok {
		return nil
	}
	if decision.Status == model.DecisionCompleted || decision.Status == model.DecisionFailed {
		return s.notifier.NotifyDecisionReady(ctx, decision)
	}
	return nil
}

// SubmitDecision files a new query for analysis. If the user already has a
// completed decision for the identical query text, that one is returned
// instead of re-running the pipeline; the second return value reports
// whether a new decision was created.
func (s *DecisionService) SubmitDecision(ctx context.Context, userID string, req model.CreateDecisionRequest) (*model.Decision, bool, error) {
	if err := s.validation.ValidateDecisionQuery(req.Query); err != nil {
		return nil, false, arbiter_errors.ErrInvalidDecisionData
	}

	if existing, err := s.decisionDAO.FindDecisionByQuery(ctx, userID, req.Query); err == nil {
		logger.Info("Reusing completed decision for repeated query",
			zap.String("userID", userID),
			zap.String("decisionID", existing.ID))
		return existing, false, nil
	} else if !errors.Is(err, arbiter_errors.ErrDecisionNotFound) {
		return nil, false, err
	}

	decision := model.Decision{
		UserID:  userID,
		Query:   req.Query,
		Context: req.Context,
		Status:  model.DecisionPending,
		Metadata: model.DecisionMetadata{
			DocumentIDs:        req.DocumentIDs,
			EnableWebSearch:    req.EnableWebSearch,
			EnableVerification: req.EnableVerification,
		},
	}
	id, err := s.decisionDAO.CreateDecision(ctx, decision)
	if err != nil {
		return nil, false, err
	}

	created, err := s.decisionDAO.GetDecisionByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	s.eventBus.Publish(ctx, util.EventDecisionCreated, *created)
	logger.Info("Decision submitted",
		zap.String("decisionID", id),
		zap.String("userID", userID))
	return created, true, nil
}

// GetDecision enforces ownership: a decision is visible to its owner and to
// admins, nobody else.
func (s *DecisionService) GetDecision(ctx context.Context, userID, decisionID string, isAdmin bool) (*model.Decision, error) {
	decision, err := s.decisionDAO.GetDecisionByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.UserID != userID && !isAdmin {
		logger.Warn("Decision access denied",
			zap.String("decisionID", decisionID),
			zap.String("requesterID", userID))
		return nil, arbiter_errors.ErrForbidden
	}
	return decision, nil
}

func (s *DecisionService) ListDecisions(ctx context.Context, userID string, page, pageSize int) (*model.DecisionPage, error) {
	return s.decisionDAO.ListUserDecisions(ctx, userID, page, pageSize)
}

func (s *DecisionService) GetStats(ctx context.Context, userID string) (*model.DecisionStats, error) {
	return s.decisionDAO.GetUserStats(ctx, userID)
}

// UpdateDecision is the worker surface. Transitions are checked against the
// lifecycle before anything is written.
func (s *DecisionService) UpdateDecision(ctx context.Context, decisionID string, updates model.UpdateDecisionRequest) (*model.Decision, error) {
	current, err := s.decisionDAO.GetDecisionByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if err := s.validation.ValidateStatusTransition(current.Status, updates.Status); err != nil {
		logger.Warn("Rejected decision status transition",
			zap.String("decisionID", decisionID),
			zap.String("from", string(current.Status)),
			zap.String("to", string(updates.Status)))
		return nil, arbiter_errors.ErrDecisionNotPending
	}

	updated, err := s.decisionDAO.UpdateDecision(ctx, decisionID, updates)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventDecisionUpdated, *updated)
	return updated, nil
}

// CancelDecision aborts a decision that has not started processing.
func (s *DecisionService) CancelDecision(ctx context.Context, userID, decisionID string) (*model.Decision, error) {
	current, err := s.decisionDAO.GetDecisionByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, arbiter_errors.ErrForbidden
	}
	if current.Status != model.DecisionPending {
		return nil, arbiter_errors.ErrDecisionNotPending
	}

	cancelled, err := s.decisionDAO.UpdateDecision(ctx, decisionID, model.UpdateDecisionRequest{
		Status:       model.DecisionFailed,
		ErrorMessage: "cancelled by user",
	})
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, util.EventDecisionUpdated, *cancelled)
	logger.Info("Decision cancelled",
		zap.String("decisionID", decisionID),
		zap.String("userID", userID))
	return cancelled, nil
}

func (s *DecisionService) DeleteDecision(ctx context.Context, userID, decisionID string, isAdmin bool, meta ClientMeta) error {
	current, err := s.decisionDAO.GetDecisionByID(ctx, decisionID)
	if err != nil {
		return err
	}
	if current.UserID != userID && !isAdmin {
		return arbiter_errors.ErrForbidden
	}

	if err := s.decisionDAO.DeleteDecision(ctx, decisionID); err != nil {
		return err
	}

	s.auditSvc.Record(ctx, audit.Event{
		Actor:   userID,
		Action:  audit.ActionDecisionDelete,
		Target:  decisionID,
		Success: true,
		IP:      meta.IP,
	})
	return nil
}
