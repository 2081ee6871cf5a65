package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/query"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a rule repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "rules"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

const ruleReturning = `id, name, priority, is_active, stop_on_match,
			  conditions, actions, created_by, created_at, updated_at, deleted_at`

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Rule], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Name", "CreatedBy")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rules: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Rule, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rule, err := repository.QueryOne(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}
	if rule.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return &rule, nil
}

func (r *repo) Create(ctx context.Context, cmd SaveCommand) (*Rule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	conditionsJSON, actionsJSON, err := marshalRuleBody(cmd)
	if err != nil {
		return nil, err
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO rules(name, priority, is_active, stop_on_match, conditions, actions, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, ruleReturning)

	rule, err := repository.QueryOne(ctx, r.db, insertQ, []any{
		cmd.Name, cmd.Priority, cmd.IsActive, cmd.StopOnMatch,
		conditionsJSON, actionsJSON, cmd.Actor,
	}, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("rule created",
		"id", rule.ID,
		"name", rule.Name,
		"priority", rule.Priority,
		"created_by", rule.CreatedBy,
	)
	return &rule, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd SaveCommand) (*Rule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	conditionsJSON, actionsJSON, err := marshalRuleBody(cmd)
	if err != nil {
		return nil, err
	}

	updateQ := fmt.Sprintf(`
		UPDATE rules
		SET name = $1, priority = $2, is_active = $3, stop_on_match = $4,
			conditions = $5, actions = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
		RETURNING %s`, ruleReturning)

	rule, err := repository.QueryOne(ctx, r.db, updateQ, []any{
		cmd.Name, cmd.Priority, cmd.IsActive, cmd.StopOnMatch,
		conditionsJSON, actionsJSON, id,
	}, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("rule updated", "id", rule.ID, "name", rule.Name, "actor", cmd.Actor)
	return &rule, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE rules SET deleted_at = NOW(), is_active = FALSE WHERE id = $1 AND deleted_at IS NULL",
		id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("rule deleted", "id", id)
	return nil
}

func (r *repo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Rule, error) {
	activateQ := fmt.Sprintf(`
		UPDATE rules
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING %s`, ruleReturning)

	rule, err := repository.QueryOne(ctx, r.db, activateQ, []any{active, id}, scanRule)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrConflict)
	}

	r.logger.Info("rule activation changed", "id", rule.ID, "is_active", rule.IsActive)
	return &rule, nil
}

// Duplicate clones a rule's conditions and actions under a new id. The clone
// is created inactive so an unreviewed copy cannot change classification
// outcomes until an administrator activates it.
func (r *repo) Duplicate(ctx context.Context, id uuid.UUID, actor string) (*Rule, error) {
	source, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	clone, err := r.Create(ctx, SaveCommand{
		Name:        source.Name + " (copy)",
		Priority:    source.Priority,
		IsActive:    false,
		StopOnMatch: source.StopOnMatch,
		Conditions:  source.Conditions,
		Actions:     source.Actions,
		Actor:       actor,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicate rule %s: %w", id, err)
	}

	r.logger.Info("rule duplicated", "source_id", id, "clone_id", clone.ID)
	return clone, nil
}

func (r *repo) Active(ctx context.Context) ([]Rule, error) {
	active := true
	qb := query.NewBuilder(projection, defaultSort...)
	Filters{IsActive: &active}.Apply(qb)

	q, args := qb.Build()
	ruleSet, err := repository.QueryMany(ctx, r.db, q, args, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query active rules: %w", err)
	}

	return ruleSet, nil
}

func (r *repo) Test(ctx context.Context, ruleID *uuid.UUID, values map[string]string) (*RunResult, error) {
	var ruleSet []Rule

	if ruleID != nil {
		rule, err := r.Find(ctx, *ruleID)
		if err != nil {
			return nil, err
		}
		ruleSet = []Rule{*rule}
	} else {
		active, err := r.Active(ctx)
		if err != nil {
			return nil, err
		}
		ruleSet = active
	}

	if len(values) == 0 {
		values = DefaultSample()
	}

	result := Run(ruleSet, values)
	return &result, nil
}

func (r *repo) LogExecutions(ctx context.Context, documentID uuid.UUID, executions []Execution) error {
	if len(executions) == 0 {
		return nil
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, e := range executions {
			actionsJSON, err := json.Marshal(e.AppliedActions)
			if err != nil {
				return struct{}{}, fmt.Errorf("marshal applied actions: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO rule_execution_logs(rule_id, document_id, matched, applied_actions)
				VALUES ($1, $2, $3, $4)`,
				e.RuleID, documentID, e.Matched, actionsJSON,
			)
			if err != nil {
				return struct{}{}, fmt.Errorf("insert execution log: %w", err)
			}
		}
		return struct{}{}, nil
	})

	return err
}

func (r *repo) Logs(
	ctx context.Context,
	ruleID uuid.UUID,
	page pagination.PageRequest,
) (*pagination.PageResult[ExecutionLog], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(logProjection, logSort).
		WhereEquals("RuleID", ruleID)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count execution logs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanExecutionLog)
	if err != nil {
		return nil, fmt.Errorf("query execution logs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func marshalRuleBody(cmd SaveCommand) ([]byte, []byte, error) {
	conditions := cmd.Conditions
	if conditions == nil {
		conditions = []Condition{}
	}
	actions := cmd.Actions
	if actions == nil {
		actions = []Action{}
	}

	conditionsJSON, err := json.Marshal(conditions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal conditions: %w", err)
	}

	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal actions: %w", err)
	}

	return conditionsJSON, actionsJSON, nil
}
