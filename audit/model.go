// api/audit/model.go
package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionUserRegister   = "user.register"
	ActionUserUpdate     = "user.update"
	ActionUserDeactivate = "user.deactivate"
	ActionUserDelete     = "user.delete"

	ActionLoginSuccess         = "auth.login.success"
	ActionLoginFailure         = "auth.login.failure"
	ActionLogout               = "auth.logout"
	ActionTokenRefresh         = "auth.token.refresh"
	ActionSessionRevoke        = "auth.session.revoke"
	ActionPasswordResetRequest = "auth.password.reset.request"
	ActionPasswordReset        = "auth.password.reset"
	ActionEmailVerified        = "auth.email.verified"

	ActionDecisionDelete = "decision.delete"

	ActionCacheInvalidate = "cache.invalidate"
	ActionCacheFlush      = "cache.flush"
)

// Event is one audit trail entry. Actor is the user who performed the
// action; Target names what it was performed on (a user ID, a decision ID,
// or a raw cache pattern).
type Event struct {
	Timestamp time.Time       `json:"timestamp"`
	Actor     string          `json:"actor"`
	Action    string          `json:"action"`
	Target    string          `json:"target,omitempty"`
	Success   bool            `json:"success"`
	IP        string          `json:"ip,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}
