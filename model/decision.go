package model

import "time"

type DecisionStatus string

const (
	DecisionPending    DecisionStatus = "pending"
	DecisionProcessing DecisionStatus = "processing"
	DecisionCompleted  DecisionStatus = "completed"
	DecisionFailed     DecisionStatus = "failed"
)

// DecisionResult is the structured recommendation produced by the analysis
// pipeline for one query.
type DecisionResult struct {
	Recommendation string   `json:"recommendation" bson:"recommendation"`
	Reasoning      string   `json:"reasoning" bson:"reasoning"`
	Pros           []string `json:"pros" bson:"pros"`
	Cons           []string `json:"cons" bson:"cons"`
	Risks          []string `json:"risks,omitempty" bson:"risks,omitempty"`
	Alternatives   []string `json:"alternatives,omitempty" bson:"alternatives,omitempty"`
	NextSteps      []string `json:"next_steps,omitempty" bson:"next_steps,omitempty"`
	Timeframe      string   `json:"timeframe,omitempty" bson:"timeframe,omitempty"`
}

type DecisionMetadata struct {
	DocumentIDs        []string `json:"document_ids,omitempty" bson:"document_ids,omitempty"`
	EnableWebSearch    bool     `json:"enable_web_search" bson:"enable_web_search"`
	EnableVerification bool     `json:"enable_verification" bson:"enable_verification"`
}

type Decision struct {
	ID               string           `json:"id" bson:"_id"`
	UserID           string           `json:"user_id" bson:"user_id"`
	Query            string           `json:"query" bson:"query"`
	Context          string           `json:"context,omitempty" bson:"context,omitempty"`
	Status           DecisionStatus   `json:"status" bson:"status"`
	Result           *DecisionResult  `json:"decision,omitempty" bson:"decision,omitempty"`
	Citations        []string         `json:"citations,omitempty" bson:"citations,omitempty"`
	Confidence       float64          `json:"confidence_score" bson:"confidence_score"`
	ProcessingTimeMs int64            `json:"processing_time_ms" bson:"processing_time_ms"`
	LLMModel         string           `json:"llm_model_used,omitempty" bson:"llm_model_used,omitempty"`
	TotalTokens      int              `json:"total_tokens" bson:"total_tokens"`
	ErrorMessage     string           `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Metadata         DecisionMetadata `json:"metadata" bson:"metadata"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// DecisionStats aggregates one user's decision history.
type DecisionStats struct {
	TotalDecisions       int     `json:"total_decisions" bson:"total_decisions"`
	CompletedDecisions   int     `json:"completed_decisions" bson:"completed_decisions"`
	PendingDecisions     int     `json:"pending_decisions" bson:"pending_decisions"`
	FailedDecisions      int     `json:"failed_decisions" bson:"failed_decisions"`
	AvgProcessingTimeMs  float64 `json:"avg_processing_time_ms" bson:"avg_processing_time_ms"`
	AvgConfidenceScore   float64 `json:"avg_confidence_score" bson:"avg_confidence_score"`
	TotalTokensUsed      int64   `json:"total_tokens_used" bson:"total_tokens_used"`
}

type CreateDecisionRequest struct {
	Query              string   `json:"query" binding:"required,min=3,max=2000"`
	Context            string   `json:"context,omitempty" binding:"omitempty,max=10000"`
	DocumentIDs        []string `json:"document_ids,omitempty"`
	EnableWebSearch    bool     `json:"enable_web_search"`
	EnableVerification bool     `json:"enable_verification"`
}

// UpdateDecisionRequest carries a pipeline worker's progress for one
// decision.
type UpdateDecisionRequest struct {
	Status           DecisionStatus  `json:"status" binding:"required,oneof=pending processing completed failed"`
	Result           *DecisionResult `json:"decision,omitempty"`
	Citations        []string        `json:"citations,omitempty"`
	Confidence       *float64        `json:"confidence_score,omitempty"`
	ProcessingTimeMs *int64          `json:"processing_time_ms,omitempty"`
	LLMModel         string          `json:"llm_model_used,omitempty"`
	TotalTokens      *int            `json:"total_tokens,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
}

type DecisionPage struct {
	Items    []Decision `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
