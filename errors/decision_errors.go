// api/errors/decision_errors.go
package errors

import "errors"

var (
	ErrDecisionNotFound    = errors.New("decision not found")
	ErrInvalidDecisionData = errors.New("invalid decision data")
	ErrDecisionNotPending  = errors.New("decision is no longer pending")

	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
)
