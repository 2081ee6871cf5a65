// Package suggestions manages the reviewable suggestion lifecycle: merged
// classification signals become pending records, which a human (or the
// auto-apply threshold) resolves to applied or ignored. Apply commits the
// document field write, the status transition, and the audit entry in one
// transaction.
package suggestions

import (
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/signals"
)

// Status is the lifecycle state of a suggestion. Applied and ignored are
// terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusApplied Status = "applied"
	StatusIgnored Status = "ignored"
)

// Suggestion is a proposed field value awaiting confirmation. ResolvedBy is
// nil for auto-applied suggestions.
type Suggestion struct {
	ID             uuid.UUID      `json:"id"`
	DocumentID     uuid.UUID      `json:"document_id"`
	FieldCode      string         `json:"field_code"`
	SuggestedValue string         `json:"suggested_value"`
	Confidence     float64        `json:"confidence"`
	Source         signals.Source `json:"source"`
	Status         Status         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy     *string        `json:"resolved_by,omitempty"`
}

// ResolveCommand identifies the human applying or ignoring a suggestion.
type ResolveCommand struct {
	Actor string `json:"actor"`
}

// BatchFailure records one suggestion a batch operation could not resolve.
type BatchFailure struct {
	SuggestionID uuid.UUID `json:"suggestion_id"`
	FieldCode    string    `json:"field_code"`
	Error        string    `json:"error"`
}

// BatchResult partitions a batch resolution. One item's failure never stops
// the rest. For ignore-all the applied list holds the ignored records.
type BatchResult struct {
	Applied []Suggestion   `json:"applied"`
	Failed  []BatchFailure `json:"failed"`
}
