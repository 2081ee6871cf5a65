package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

var csvHeader = []string{
	"id", "document_id", "field_code", "old_value", "new_value",
	"source", "actor_id", "reverts_entry_id", "created_at",
}

// ExportCSV streams filtered entries as CSV, oldest first so the file reads
// as a chronological log.
func (r *repo) ExportCSV(ctx context.Context, w io.Writer, filters Filters) error {
	qb := query.NewBuilder(projection,
		query.SortField{Field: "CreatedAt"},
		query.SortField{Field: "ID"},
	)
	filters.Apply(qb)

	q, args := qb.Build()
	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return fmt.Errorf("query entries for export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range entries {
		var actor, reverts string
		if e.ActorID != nil {
			actor = *e.ActorID
		}
		if e.RevertsEntryID != nil {
			reverts = e.RevertsEntryID.String()
		}

		record := []string{
			e.ID.String(),
			e.DocumentID.String(),
			e.FieldCode,
			e.OldValue,
			e.NewValue,
			string(e.Source),
			actor,
			reverts,
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
