package documents

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("content", "Content").
	Project("correspondent", "Correspondent").
	Project("document_type", "DocumentType").
	Project("document_date", "DocumentDate").
	Project("amount", "Amount").
	Project("tags", "Tags").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Correspondent *string `json:"correspondent,omitempty"`
	DocumentType  *string `json:"document_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Correspondent", f.Correspondent).
		WhereEquals("DocumentType", f.DocumentType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("correspondent"); v != "" {
		f.Correspondent = &v
	}

	if v := values.Get("document_type"); v != "" {
		f.DocumentType = &v
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	var tagsRaw []byte

	err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Content,
		&d.Correspondent,
		&d.DocumentType,
		&d.DocumentDate,
		&d.Amount,
		&tagsRaw,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	if err != nil {
		return d, err
	}

	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &d.Tags); err != nil {
			return d, fmt.Errorf("unmarshal tags: %w", err)
		}
	}

	if d.Tags == nil {
		d.Tags = []string{}
	}

	return d, nil
}
