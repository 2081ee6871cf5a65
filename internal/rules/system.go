package rules

import (
	"context"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/pkg/pagination"
)

// System defines the public contract for rule domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Rule], error)

	Find(ctx context.Context, id uuid.UUID) (*Rule, error)
	Create(ctx context.Context, cmd SaveCommand) (*Rule, error)
	Update(ctx context.Context, id uuid.UUID, cmd SaveCommand) (*Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Rule, error)
	Duplicate(ctx context.Context, id uuid.UUID, actor string) (*Rule, error)

	// Active returns all active, non-deleted rules in (priority, id) order.
	Active(ctx context.Context) ([]Rule, error)

	// Test runs the rule pipeline against sample field values without
	// committing any side effects. A nil ruleID tests the full active set;
	// otherwise only the named rule is evaluated.
	Test(ctx context.Context, ruleID *uuid.UUID, values map[string]string) (*RunResult, error)

	// LogExecutions appends execution log entries for one processed document.
	LogExecutions(ctx context.Context, documentID uuid.UUID, executions []Execution) error

	Logs(
		ctx context.Context,
		ruleID uuid.UUID,
		page pagination.PageRequest,
	) (*pagination.PageResult[ExecutionLog], error)
}
