package audit

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audit_entries", "a").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("field_code", "FieldCode").
	Project("old_value", "OldValue").
	Project("new_value", "NewValue").
	Project("source", "Source").
	Project("actor_id", "ActorID").
	Project("reverts_entry_id", "RevertsEntryID").
	Project("created_at", "CreatedAt")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID", Descending: true},
}

// Filters contains optional filtering criteria for audit queries.
// Nil fields are ignored.
type Filters struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	FieldCode  *string    `json:"field_code,omitempty"`
	Source     *string    `json:"source,omitempty"`
	Actor      *string    `json:"actor,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("FieldCode", f.FieldCode).
		WhereEquals("Source", f.Source).
		WhereEquals("ActorID", f.Actor).
		WhereGte("CreatedAt", f.From).
		WhereLte("CreatedAt", f.To)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Timestamps use RFC 3339.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("document_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.DocumentID = &id
		}
	}

	if v := values.Get("field_code"); v != "" {
		f.FieldCode = &v
	}

	if v := values.Get("source"); v != "" {
		f.Source = &v
	}

	if v := values.Get("actor"); v != "" {
		f.Actor = &v
	}

	if v := values.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}

	if v := values.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry

	err := s.Scan(
		&e.ID,
		&e.DocumentID,
		&e.FieldCode,
		&e.OldValue,
		&e.NewValue,
		&e.Source,
		&e.ActorID,
		&e.RevertsEntryID,
		&e.CreatedAt,
	)

	return e, err
}
