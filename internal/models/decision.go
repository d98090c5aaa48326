package models

import "time"

// Decision dispositions accepted by the backend.
const (
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionExpired   = "expired"
	DecisionCancelled = "cancelled"
)

// Decision is the immutable audit record the backend creates when a
// suggestion is resolved.
type Decision struct {
	ID           int64     `json:"id"`
	SuggestionID int64     `json:"suggestion_id"`
	Decision     string    `json:"decision"`
	Reason       *string   `json:"reason,omitempty"`
	DecidedAt    time.Time `json:"decided_at"`
}

// DecisionRequest is the create payload for POST /v1/decisions.
type DecisionRequest struct {
	SuggestionID int64  `json:"suggestion_id"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason"`
}
