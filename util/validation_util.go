// api/util/validation_util.go

package util

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arbiterhq/arbiter/api/model"
)

// ValidationUtil guards writes that arrive through service calls rather
// than request binding. It runs the same validator gin binds with, so an
// email rejected here is the same email binding would have rejected.
type ValidationUtil struct {
	validate *validator.Validate
}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{validate: validator.New()}
}

func (v *ValidationUtil) ValidateUser(user model.User) error {
	if err := v.validate.Var(user.Email, "required,email"); err != nil {
		return fmt.Errorf("user email must be a valid address")
	}
	if user.Role != model.RoleUser && user.Role != model.RoleAdmin {
		return fmt.Errorf("user role must be either 'user' or 'admin'")
	}
	if user.HashedPassword == "" {
		return fmt.Errorf("user must have a password hash")
	}
	return nil
}

func (v *ValidationUtil) ValidateDecisionQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 3 {
		return fmt.Errorf("decision query must be at least 3 characters")
	}
	if len(trimmed) > 2000 {
		return fmt.Errorf("decision query cannot exceed 2000 characters")
	}
	return nil
}

// validTransitions holds the decision lifecycle. Completed and failed are
// terminal.
var validTransitions = map[model.DecisionStatus][]model.DecisionStatus{
	model.DecisionPending:    {model.DecisionProcessing, model.DecisionCompleted, model.DecisionFailed},
	model.DecisionProcessing: {model.DecisionCompleted, model.DecisionFailed},
}

func (v *ValidationUtil) ValidateStatusTransition(from, to model.DecisionStatus) error {
	for _, allowed := range validTransitions[from] {
		if to == allowed {
			return nil
		}
	}
	return fmt.Errorf("cannot move decision from %q to %q", from, to)
}
