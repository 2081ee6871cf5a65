package suggestions

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "suggestions", "s").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("field_code", "FieldCode").
	Project("suggested_value", "SuggestedValue").
	Project("confidence", "Confidence").
	Project("source", "Source").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("resolved_at", "ResolvedAt").
	Project("resolved_by", "ResolvedBy")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

// Filters contains optional filtering criteria for suggestion queries.
// Nil fields are ignored.
type Filters struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	FieldCode  *string    `json:"field_code,omitempty"`
	Source     *string    `json:"source,omitempty"`
	Status     *Status    `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("FieldCode", f.FieldCode).
		WhereEquals("Source", f.Source).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
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

	if v := values.Get("status"); v != "" {
		status := Status(v)
		f.Status = &status
	}

	return f
}

func scanSuggestion(s repository.Scanner) (Suggestion, error) {
	var sg Suggestion

	err := s.Scan(
		&sg.ID,
		&sg.DocumentID,
		&sg.FieldCode,
		&sg.SuggestedValue,
		&sg.Confidence,
		&sg.Source,
		&sg.Status,
		&sg.CreatedAt,
		&sg.ResolvedAt,
		&sg.ResolvedBy,
	)

	return sg, err
}
