package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

const documentColumns = `id, title, content, correspondent, document_type,
			  document_date, amount, tags, created_at, updated_at`

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Content")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if cmd.Title == "" {
		return nil, fmt.Errorf("%w: title required", ErrValidation)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO documents(title, content)
		VALUES ($1, $2)
		RETURNING %s`, documentColumns)

	d, err := repository.QueryOne(ctx, r.db, insertQ, []any{cmd.Title, cmd.Content}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("document registered", "id", d.ID, "title", d.Title)
	return &d, nil
}

func (r *repo) Lock(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*Document, error) {
	lockQ := fmt.Sprintf(
		"SELECT %s FROM documents WHERE id = $1 FOR UPDATE",
		documentColumns,
	)

	d, err := repository.QueryOne(ctx, tx, lockQ, []any{id}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &d, nil
}

// SetField parses value per the field's declared type and writes the mapped
// column. An empty value clears nullable fields.
func (r *repo) SetField(ctx context.Context, e repository.Executor, id uuid.UUID, fieldCode, value string) error {
	column, arg, err := fieldAssignment(fieldCode, value)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(
		"UPDATE documents SET %s = $1, updated_at = NOW() WHERE id = $2",
		column,
	)

	if err := repository.ExecExpectOne(ctx, e, stmt, arg, id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	return nil
}

func fieldAssignment(fieldCode, value string) (string, any, error) {
	switch fieldCode {
	case fields.CodeTitle:
		return "title", value, nil
	case fields.CodeCorrespondent:
		return "correspondent", value, nil
	case fields.CodeDocumentType:
		return "document_type", value, nil
	case fields.CodeDocumentDate:
		if value == "" {
			return "document_date", nil, nil
		}
		t, ok := fields.ParseDate(value)
		if !ok {
			return "", nil, fmt.Errorf("%w: unparseable date %q", ErrValidation, value)
		}
		return "document_date", t, nil
	case fields.CodeAmount:
		if value == "" {
			return "amount", nil, nil
		}
		f, ok := fields.ParseNumber(value)
		if !ok {
			return "", nil, fmt.Errorf("%w: unparseable amount %q", ErrValidation, value)
		}
		return "amount", f, nil
	case fields.CodeTags:
		tagsJSON, err := json.Marshal(fields.SplitList(value))
		if err != nil {
			return "", nil, fmt.Errorf("marshal tags: %w", err)
		}
		return "tags", tagsJSON, nil
	default:
		return "", nil, fmt.Errorf("%w: field %q is not assignable", ErrValidation, fieldCode)
	}
}
