// Package documents implements the document field store: the authoritative
// classification field values per document that the rule evaluator reads and
// that suggestion application and revert write back, always inside the same
// transaction as their audit entries.
package documents

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/fields"
)

// Document is a registered document with its classification field values.
// Content carries the extracted text blob supplied by the upstream
// text-extraction service.
type Document struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Correspondent string     `json:"correspondent"`
	DocumentType  string     `json:"document_type"`
	DocumentDate  *time.Time `json:"document_date"`
	Amount        *float64   `json:"amount"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to register a document. Content is
// the extracted text blob; classification fields start empty and are filled
// by processing.
type CreateCommand struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// FieldValues flattens a document into the field_code → value map consumed
// by the condition evaluator and signal sources. Unset fields are omitted so
// conditions referencing them evaluate to false.
func (d *Document) FieldValues() map[string]string {
	values := map[string]string{
		fields.CodeTitle:   d.Title,
		fields.CodeContent: d.Content,
	}

	if d.Correspondent != "" {
		values[fields.CodeCorrespondent] = d.Correspondent
	}
	if d.DocumentType != "" {
		values[fields.CodeDocumentType] = d.DocumentType
	}
	if d.DocumentDate != nil {
		values[fields.CodeDocumentDate] = d.DocumentDate.Format("2006-01-02")
	}
	if d.Amount != nil {
		values[fields.CodeAmount] = strconv.FormatFloat(*d.Amount, 'f', -1, 64)
	}
	if len(d.Tags) > 0 {
		values[fields.CodeTags] = fields.JoinList(d.Tags)
	}

	return values
}

// FieldValue returns the current value of one field in its canonical string
// form, empty when unset.
func (d *Document) FieldValue(code string) string {
	return d.FieldValues()[code]
}
