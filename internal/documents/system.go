package documents

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)

	// Lock acquires a row-level lock on the document within tx and returns
	// the locked row. Serializes suggestion generation, apply, and revert
	// for the same document across instances.
	Lock(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*Document, error)

	// SetField writes one classification field inside the caller's
	// transaction, parsing the canonical string value per the field's type.
	SetField(ctx context.Context, e repository.Executor, id uuid.UUID, fieldCode, value string) error
}
