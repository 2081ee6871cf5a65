package suggestions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

type repo struct {
	db         *sql.DB
	docs       documents.System
	trail      audit.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a suggestion repository implementing the System interface.
func New(
	db *sql.DB,
	docs documents.System,
	trail audit.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		docs:       docs,
		trail:      trail,
		logger:     logger.With("system", "suggestions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

const suggestionReturning = `id, document_id, field_code, suggested_value,
			  confidence, source, status, created_at, resolved_at, resolved_by`

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Suggestion], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "FieldCode", "SuggestedValue")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count suggestions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSuggestion)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Suggestion, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanSuggestion)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	return &s, nil
}

func (r *repo) ForDocument(ctx context.Context, documentID uuid.UUID) ([]Suggestion, error) {
	qb := query.NewBuilder(projection, defaultSort...)
	Filters{DocumentID: &documentID}.Apply(qb)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanSuggestion)
	if err != nil {
		return nil, fmt.Errorf("query suggestions for document %s: %w", documentID, err)
	}

	return items, nil
}

// upsert keeps generation idempotent: the partial unique index on
// (document_id, field_code) WHERE status = 'pending' collapses concurrent
// and repeated generations into one pending record per field, and the
// conflict clause keeps the higher confidence with its value.
const upsertQ = `
	INSERT INTO suggestions(document_id, field_code, suggested_value, confidence, source)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (document_id, field_code) WHERE status = 'pending'
	DO UPDATE SET
		suggested_value = CASE
			WHEN EXCLUDED.confidence > suggestions.confidence THEN EXCLUDED.suggested_value
			ELSE suggestions.suggested_value END,
		source = CASE
			WHEN EXCLUDED.confidence > suggestions.confidence THEN EXCLUDED.source
			ELSE suggestions.source END,
		confidence = GREATEST(suggestions.confidence, EXCLUDED.confidence)
	RETURNING ` + suggestionReturning

func (r *repo) Generate(
	ctx context.Context,
	tx *sql.Tx,
	doc *documents.Document,
	proposals []signals.FieldValue,
) ([]Suggestion, error) {
	generated := make([]Suggestion, 0, len(proposals))

	for _, p := range proposals {
		if !fields.Assignable(p.FieldCode) || p.Value == "" {
			continue
		}
		if p.Value == doc.FieldValue(p.FieldCode) {
			continue
		}

		s, err := repository.QueryOne(ctx, tx, upsertQ, []any{
			doc.ID, p.FieldCode, p.Value, signals.Clamp(p.Confidence), p.Source,
		}, scanSuggestion)
		if err != nil {
			return nil, fmt.Errorf("upsert suggestion for %s/%s: %w", doc.ID, p.FieldCode, err)
		}

		generated = append(generated, s)
	}

	if len(generated) > 0 {
		r.logger.Info("suggestions generated", "document_id", doc.ID, "count", len(generated))
	}
	return generated, nil
}

func (r *repo) AutoApply(
	ctx context.Context,
	tx *sql.Tx,
	doc *documents.Document,
	s Suggestion,
) (*Suggestion, error) {
	if s.Status != StatusPending {
		return nil, fmt.Errorf("%w: suggestion %s is %s", ErrConflict, s.ID, s.Status)
	}

	old := doc.FieldValue(s.FieldCode)
	if err := r.docs.SetField(ctx, tx, doc.ID, s.FieldCode, s.SuggestedValue); err != nil {
		return nil, err
	}

	resolved, err := r.resolve(ctx, tx, s.ID, StatusApplied, nil)
	if err != nil {
		return nil, err
	}

	if _, err := r.trail.Record(ctx, tx, audit.RecordCommand{
		DocumentID: doc.ID,
		FieldCode:  s.FieldCode,
		OldValue:   old,
		NewValue:   s.SuggestedValue,
		Source:     s.Source,
	}); err != nil {
		return nil, err
	}

	r.logger.Info("suggestion auto-applied",
		"id", s.ID,
		"document_id", doc.ID,
		"field_code", s.FieldCode,
		"confidence", s.Confidence,
	)
	return resolved, nil
}

func (r *repo) Apply(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Suggestion, error) {
	if cmd.Actor == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Suggestion, error) {
		target, err := r.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if target.Status != StatusPending {
			return nil, fmt.Errorf("%w: suggestion %s is %s", ErrConflict, id, target.Status)
		}

		doc, err := r.docs.Lock(ctx, tx, target.DocumentID)
		if err != nil {
			return nil, err
		}

		old := doc.FieldValue(target.FieldCode)
		if err := r.docs.SetField(ctx, tx, doc.ID, target.FieldCode, target.SuggestedValue); err != nil {
			return nil, err
		}

		actor := cmd.Actor
		resolved, err := r.resolve(ctx, tx, id, StatusApplied, &actor)
		if err != nil {
			return nil, err
		}

		if _, err := r.trail.Record(ctx, tx, audit.RecordCommand{
			DocumentID: doc.ID,
			FieldCode:  target.FieldCode,
			OldValue:   old,
			NewValue:   target.SuggestedValue,
			Source:     target.Source,
			ActorID:    &actor,
		}); err != nil {
			return nil, err
		}

		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("suggestion applied",
		"id", s.ID,
		"document_id", s.DocumentID,
		"field_code", s.FieldCode,
		"actor", cmd.Actor,
	)
	return s, nil
}

func (r *repo) Ignore(ctx context.Context, id uuid.UUID, cmd ResolveCommand) (*Suggestion, error) {
	if cmd.Actor == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}

	actor := cmd.Actor
	s, err := r.resolve(ctx, r.db, id, StatusIgnored, &actor)
	if err != nil {
		return nil, err
	}

	r.logger.Info("suggestion ignored", "id", s.ID, "document_id", s.DocumentID, "actor", cmd.Actor)
	return s, nil
}

// resolve transitions a pending suggestion to a terminal status. The
// conditional UPDATE is the race guard: a suggestion resolved by a
// concurrent call yields zero rows, surfaced as ErrConflict.
func (r *repo) resolve(
	ctx context.Context,
	db repository.Database,
	id uuid.UUID,
	status Status,
	actor *string,
) (*Suggestion, error) {
	resolveQ := fmt.Sprintf(`
		UPDATE suggestions
		SET status = $1, resolved_at = NOW(), resolved_by = $2
		WHERE id = $3 AND status = 'pending'
		RETURNING %s`, suggestionReturning)

	s, err := repository.QueryOne(ctx, db, resolveQ, []any{status, actor, id}, scanSuggestion)
	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrConflict)
		if errors.Is(mapped, ErrNotFound) {
			if _, findErr := r.Find(ctx, id); findErr == nil {
				return nil, fmt.Errorf("%w: suggestion %s", ErrConflict, id)
			}
		}
		return nil, mapped
	}
	return &s, nil
}

func (r *repo) ApplyAll(ctx context.Context, documentID uuid.UUID, cmd ResolveCommand) (*BatchResult, error) {
	return r.resolveAll(ctx, documentID, cmd, r.Apply)
}

func (r *repo) IgnoreAll(ctx context.Context, documentID uuid.UUID, cmd ResolveCommand) (*BatchResult, error) {
	return r.resolveAll(ctx, documentID, cmd, r.Ignore)
}

// resolveAll applies the per-item semantics to every pending suggestion on
// a document, collecting failures instead of aborting.
func (r *repo) resolveAll(
	ctx context.Context,
	documentID uuid.UUID,
	cmd ResolveCommand,
	fn func(context.Context, uuid.UUID, ResolveCommand) (*Suggestion, error),
) (*BatchResult, error) {
	if cmd.Actor == "" {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}

	if _, err := r.docs.Find(ctx, documentID); err != nil {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}

	pending := StatusPending
	qb := query.NewBuilder(projection, query.SortField{Field: "CreatedAt"}, query.SortField{Field: "ID"})
	Filters{DocumentID: &documentID, Status: &pending}.Apply(qb)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanSuggestion)
	if err != nil {
		return nil, fmt.Errorf("query pending suggestions for %s: %w", documentID, err)
	}

	result := &BatchResult{
		Applied: []Suggestion{},
		Failed:  []BatchFailure{},
	}

	for _, item := range items {
		resolved, err := fn(ctx, item.ID, cmd)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				SuggestionID: item.ID,
				FieldCode:    item.FieldCode,
				Error:        err.Error(),
			})
			continue
		}
		result.Applied = append(result.Applied, *resolved)
	}

	return result, nil
}
