// Package audit implements the immutable classification audit trail: every
// committed field mutation is recorded with its before/after values and
// source, supporting history queries, version comparison, CSV export, and
// revert. Entries are append-only; a revert writes a new forward entry and
// never mutates or deletes history.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/signals"
)

// Entry is one committed field change on a document. ActorID is nil for
// automated sources. RevertsEntryID references the entry a revert restored,
// and is nil for ordinary changes.
type Entry struct {
	ID             uuid.UUID      `json:"id"`
	DocumentID     uuid.UUID      `json:"document_id"`
	FieldCode      string         `json:"field_code"`
	OldValue       string         `json:"old_value"`
	NewValue       string         `json:"new_value"`
	Source         signals.Source `json:"source"`
	ActorID        *string        `json:"actor_id"`
	RevertsEntryID *uuid.UUID     `json:"reverts_entry_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RecordCommand carries the data for one audit entry insert.
type RecordCommand struct {
	DocumentID     uuid.UUID
	FieldCode      string
	OldValue       string
	NewValue       string
	Source         signals.Source
	ActorID        *string
	RevertsEntryID *uuid.UUID
}

// RevertCommand identifies the human requesting a revert.
type RevertCommand struct {
	Actor string `json:"actor"`
}

// Stats summarizes audit activity for administrative review.
type Stats struct {
	Total    int            `json:"total"`
	BySource map[string]int `json:"by_source"`
	ByField  map[string]int `json:"by_field"`
}
