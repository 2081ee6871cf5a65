package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

// EditCommand sets one classification field by hand.
type EditCommand struct {
	FieldCode string `json:"field_code"`
	Value     string `json:"value"`
	Actor     string `json:"actor_id"`
}

// Normalize validates the command and rewrites Value into its canonical
// form. An empty value clears the field.
func (c *EditCommand) Normalize() error {
	if c.Actor == "" {
		return fmt.Errorf("%w: actor_id is required", documents.ErrValidation)
	}
	if !fields.Assignable(c.FieldCode) {
		return fmt.Errorf("%w: field %q is not assignable", documents.ErrValidation, c.FieldCode)
	}

	if strings.TrimSpace(c.Value) == "" {
		c.Value = ""
		return nil
	}

	canonical, ok := fields.Canonical(c.FieldCode, c.Value)
	if !ok {
		return fmt.Errorf("%w: invalid %s value %q", documents.ErrValidation, c.FieldCode, c.Value)
	}
	c.Value = canonical
	return nil
}

// EditField commits a manual field edit: the document row is locked, the
// field written, and a manual-source audit entry recorded with the actor,
// all in one transaction. Manual entries are what the history collaborator
// mines for learned values, so edits of the same field on a correspondent's
// documents feed back into later processing passes. Writing the value the
// field already holds is a no-op and leaves the trail untouched.
func (o *orchestrator) EditField(ctx context.Context, documentID uuid.UUID, cmd EditCommand) (*documents.Document, error) {
	if err := cmd.Normalize(); err != nil {
		return nil, err
	}

	unlock := o.locks.Lock(documentID)
	defer unlock()

	doc, err := repository.WithTx(ctx, o.db, func(tx *sql.Tx) (*documents.Document, error) {
		locked, err := o.docs.Lock(ctx, tx, documentID)
		if err != nil {
			return nil, err
		}

		old := locked.FieldValue(cmd.FieldCode)
		if old == cmd.Value {
			return locked, nil
		}

		if err := o.docs.SetField(ctx, tx, locked.ID, cmd.FieldCode, cmd.Value); err != nil {
			return nil, err
		}

		actor := cmd.Actor
		if _, err := o.trail.Record(ctx, tx, audit.RecordCommand{
			DocumentID: locked.ID,
			FieldCode:  cmd.FieldCode,
			OldValue:   old,
			NewValue:   cmd.Value,
			Source:     signals.SourceManual,
			ActorID:    &actor,
		}); err != nil {
			return nil, err
		}

		return o.docs.Lock(ctx, tx, locked.ID)
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("field edited",
		"document_id", documentID,
		"field_code", cmd.FieldCode,
		"actor", cmd.Actor,
	)
	return doc, nil
}
