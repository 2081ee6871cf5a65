package audit

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

// System defines the public contract for audit trail operations.
type System interface {
	Handler() *Handler

	// Record appends one audit entry within the caller's transaction or
	// connection. Every committed field mutation in the service flows
	// through here.
	Record(ctx context.Context, db repository.Database, cmd RecordCommand) (*Entry, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)

	Find(ctx context.Context, id uuid.UUID) (*Entry, error)

	// History returns a document's entries newest first, capped at limit
	// when limit is positive.
	History(ctx context.Context, documentID uuid.UUID, limit int) ([]Entry, error)

	// Compare replays a document's history at two points in time and
	// reports the field values and differences.
	Compare(ctx context.Context, documentID uuid.UUID, from, to time.Time) (*Comparison, error)

	// Revert restores the value a given entry overwrote by appending a
	// new forward entry. It fails with ErrConflict when the entry was
	// already reverted; intervening changes to the field are overwritten.
	Revert(ctx context.Context, entryID uuid.UUID, cmd RevertCommand) (*Entry, error)

	// Stats aggregates the trail, optionally bounded to a time window.
	Stats(ctx context.Context, from, to *time.Time) (*Stats, error)

	// ExportCSV streams filtered entries as CSV, oldest first.
	ExportCSV(ctx context.Context, w io.Writer, filters Filters) error

	// LearnedValues derives field-value signals from past manual edits on
	// documents sharing a correspondent.
	LearnedValues(ctx context.Context, correspondent string) ([]signals.FieldValue, error)
}
