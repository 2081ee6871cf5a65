package suggestions

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/pkg/pagination"
)

// System defines the public contract for suggestion lifecycle operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Suggestion], error)

	Find(ctx context.Context, id uuid.UUID) (*Suggestion, error)
	ForDocument(ctx context.Context, documentID uuid.UUID) ([]Suggestion, error)

	// Generate upserts pending suggestions for the proposed values within
	// the caller's transaction. The caller must hold the document's row
	// lock. Proposals matching the document's current value are skipped;
	// an existing pending suggestion for the same field keeps the higher
	// confidence and the stronger proposal's value, so reprocessing never
	// duplicates records or downgrades confidence.
	Generate(ctx context.Context, tx *sql.Tx, doc *documents.Document, proposals []signals.FieldValue) ([]Suggestion, error)

	// AutoApply resolves a freshly generated pending suggestion inside the
	// caller's transaction with no human actor. The audit entry carries
	// the suggestion's own source.
	AutoApply(ctx context.Context, tx *sql.Tx, doc *documents.Document, s Suggestion) (*Suggestion, error)

	// Apply commits the suggested value to the document, marks the
	// suggestion applied, and records the audit entry atomically. Fails
	// with ErrConflict when the suggestion is no longer pending.
	Apply(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Suggestion, error)

	// Ignore marks a pending suggestion ignored. Fails with ErrConflict
	// when the suggestion is no longer pending.
	Ignore(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Suggestion, error)

	ApplyAll(ctx context.Context, documentID uuid.UUID, cmd ResolveCommand) (*BatchResult, error)
	IgnoreAll(ctx context.Context, documentID uuid.UUID, cmd ResolveCommand) (*BatchResult, error)
}
