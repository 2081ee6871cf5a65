package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

// historyWeight scales learned-history confidence so a derived signal never
// claims the full certainty of the manual edits it was computed from.
const historyWeight = 0.9

type repo struct {
	db         *sql.DB
	docs       documents.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, docs documents.System, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		docs:       docs,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

const entryReturning = `id, document_id, field_code, old_value, new_value,
			  source, actor_id, reverts_entry_id, created_at`

func (r *repo) Record(ctx context.Context, db repository.Database, cmd RecordCommand) (*Entry, error) {
	if !cmd.Source.Valid() {
		return nil, fmt.Errorf("%w: unknown source %q", ErrValidation, cmd.Source)
	}
	if _, ok := fields.TypeOf(cmd.FieldCode); !ok {
		return nil, fmt.Errorf("%w: unknown field %q", ErrValidation, cmd.FieldCode)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO audit_entries(document_id, field_code, old_value, new_value, source, actor_id, reverts_entry_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, entryReturning)

	entry, err := repository.QueryOne(ctx, db, insertQ, []any{
		cmd.DocumentID, cmd.FieldCode, cmd.OldValue, cmd.NewValue,
		cmd.Source, cmd.ActorID, cmd.RevertsEntryID,
	}, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	return &entry, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "FieldCode", "OldValue", "NewValue")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Entry, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	entry, err := repository.QueryOne(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &entry, nil
}

func (r *repo) History(ctx context.Context, documentID uuid.UUID, limit int) ([]Entry, error) {
	qb := query.NewBuilder(projection, defaultSort...)
	Filters{DocumentID: &documentID}.Apply(qb)

	q, args := qb.Build()
	if limit > 0 {
		q = fmt.Sprintf("%s LIMIT %d", q, limit)
	}

	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query history for document %s: %w", documentID, err)
	}

	return entries, nil
}

func (r *repo) Compare(ctx context.Context, documentID uuid.UUID, from, to time.Time) (*Comparison, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: comparison range ends before it starts", ErrValidation)
	}

	if _, err := r.docs.Find(ctx, documentID); err != nil {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}

	upTo := to
	qb := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"})
	Filters{DocumentID: &documentID, To: &upTo}.Apply(qb)

	q, args := qb.Build()
	entries, err := repository.QueryMany(ctx, r.db, q, args, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query entries for comparison: %w", err)
	}

	before := SnapshotAt(entries, from)
	after := SnapshotAt(entries, to)

	return &Comparison{
		DocumentID: documentID.String(),
		From:       from,
		To:         to,
		Before:     before,
		After:      after,
		Changes:    Diff(before, after),
	}, nil
}

// Revert restores the value entry overwrote. The revert itself is a normal
// forward entry, so history stays append-only and a revert can in turn be
// reverted. If the field changed again after the target entry, the revert
// still writes the target's old value; the trail records what it replaced.
func (r *repo) Revert(ctx context.Context, entryID uuid.UUID, cmd RevertCommand) (*Entry, error) {
	if cmd.Actor == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}

	entry, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Entry, error) {
		target, err := repository.QueryOne(ctx, tx,
			fmt.Sprintf("SELECT %s FROM audit_entries WHERE id = $1", entryReturning),
			[]any{entryID}, scanEntry)
		if err != nil {
			return nil, repository.MapError(err, ErrNotFound, ErrConflict)
		}

		var reverted bool
		err = tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM audit_entries WHERE reverts_entry_id = $1)",
			entryID,
		).Scan(&reverted)
		if err != nil {
			return nil, fmt.Errorf("check revert state: %w", err)
		}
		if reverted {
			return nil, fmt.Errorf("%w: entry %s already reverted", ErrConflict, entryID)
		}

		doc, err := r.docs.Lock(ctx, tx, target.DocumentID)
		if err != nil {
			return nil, err
		}
		current := doc.FieldValue(target.FieldCode)

		if err := r.docs.SetField(ctx, tx, doc.ID, target.FieldCode, target.OldValue); err != nil {
			return nil, err
		}

		actor := cmd.Actor
		return r.Record(ctx, tx, RecordCommand{
			DocumentID:     target.DocumentID,
			FieldCode:      target.FieldCode,
			OldValue:       current,
			NewValue:       target.OldValue,
			Source:         signals.SourceRevert,
			ActorID:        &actor,
			RevertsEntryID: &target.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("entry reverted",
		"entry_id", entryID,
		"document_id", entry.DocumentID,
		"field_code", entry.FieldCode,
		"actor", cmd.Actor,
	)
	return entry, nil
}

func (r *repo) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	stats := &Stats{
		BySource: make(map[string]int),
		ByField:  make(map[string]int),
	}

	where, args := statsWindow(from, to)

	countQ := "SELECT COUNT(*) FROM audit_entries" + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	if err := r.groupCounts(ctx, "source", where, args, stats.BySource); err != nil {
		return nil, err
	}
	if err := r.groupCounts(ctx, "field_code", where, args, stats.ByField); err != nil {
		return nil, err
	}

	return stats, nil
}

func statsWindow(from, to *time.Time) (string, []any) {
	var clauses []string
	var args []any

	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repo) groupCounts(ctx context.Context, column, where string, args []any, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM audit_entries%s GROUP BY %s", column, where, column,
	), args...)
	if err != nil {
		return fmt.Errorf("group audit entries by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// LearnedValues proposes field values from past manual edits on documents
// sharing a correspondent. Each field's most frequent manually assigned
// value becomes a signal; confidence is its share of that field's edits,
// scaled by historyWeight. The correspondent field itself is excluded since
// it is the lookup key.
func (r *repo) LearnedValues(ctx context.Context, correspondent string) ([]signals.FieldValue, error) {
	if correspondent == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.field_code, a.new_value, COUNT(*) AS votes,
			   SUM(COUNT(*)) OVER (PARTITION BY a.field_code) AS total
		FROM audit_entries a
		JOIN documents d ON d.id = a.document_id
		WHERE a.source = $1
		  AND a.field_code <> $2
		  AND a.new_value <> ''
		  AND d.correspondent = $3
		GROUP BY a.field_code, a.new_value
		ORDER BY a.field_code, votes DESC, a.new_value`,
		signals.SourceManual, fields.CodeCorrespondent, correspondent,
	)
	if err != nil {
		return nil, fmt.Errorf("query learned values for %q: %w", correspondent, err)
	}
	defer rows.Close()

	var learned []signals.FieldValue
	seen := make(map[string]bool)

	for rows.Next() {
		var code, value string
		var votes, total int
		if err := rows.Scan(&code, &value, &votes, &total); err != nil {
			return nil, err
		}
		if seen[code] || total == 0 {
			continue
		}
		seen[code] = true

		learned = append(learned, signals.FieldValue{
			FieldCode:  code,
			Value:      value,
			Confidence: signals.Clamp(historyWeight * float64(votes) / float64(total)),
			Source:     signals.SourceHistory,
		})
	}
	return learned, rows.Err()
}
