package rules

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionLog is an append-only record of one rule evaluated against one
// document during processing. It backs the rule logs operation.
type ExecutionLog struct {
	ID             uuid.UUID `json:"id"`
	RuleID         uuid.UUID `json:"rule_id"`
	DocumentID     uuid.UUID `json:"document_id"`
	Matched        bool      `json:"matched"`
	AppliedActions []Action  `json:"applied_actions"`
	CreatedAt      time.Time `json:"created_at"`
}

// DefaultSample returns the field values used by the rule test operation
// when the caller does not supply a sample document.
func DefaultSample() map[string]string {
	return map[string]string{
		"title":         "Invoice 2024-0117",
		"content":       "Invoice for services rendered, total due 149.90 EUR",
		"document_date": "2024-01-17",
		"amount":        "149.90",
		"tags":          "inbox",
	}
}
