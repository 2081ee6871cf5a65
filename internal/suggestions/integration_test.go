//go:build integration

package suggestions_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/migrations"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/internal/suggestions"
	"github.com/arbiterhq/arbiter/pkg/pagination"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("ARBITER_TEST_DSN")
	if dsn == "" {
		t.Skip("ARBITER_TEST_DSN not set")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSystems(t *testing.T) (*sql.DB, documents.System, audit.System, suggestions.System) {
	t.Helper()

	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	page := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	docs := documents.New(db, logger, page)
	trail := audit.New(db, docs, logger, page)
	suggs := suggestions.New(db, docs, trail, logger, page)
	return db, docs, trail, suggs
}

func createDocument(t *testing.T, docs documents.System) *documents.Document {
	t.Helper()

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		Title:   "doc-" + uuid.NewString(),
		Content: "quarterly statement",
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func generate(
	t *testing.T,
	db *sql.DB,
	docs documents.System,
	suggs suggestions.System,
	documentID uuid.UUID,
	proposals []signals.FieldValue,
) []suggestions.Suggestion {
	t.Helper()

	generated, err := repository.WithTx(context.Background(), db, func(tx *sql.Tx) ([]suggestions.Suggestion, error) {
		locked, err := docs.Lock(context.Background(), tx, documentID)
		if err != nil {
			return nil, err
		}
		return suggs.Generate(context.Background(), tx, locked, proposals)
	})
	if err != nil {
		t.Fatalf("generate suggestions: %v", err)
	}
	return generated
}

func pendingFor(t *testing.T, suggs suggestions.System, documentID uuid.UUID) []suggestions.Suggestion {
	t.Helper()

	all, err := suggs.ForDocument(context.Background(), documentID)
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}

	var pending []suggestions.Suggestion
	for _, s := range all {
		if s.Status == suggestions.StatusPending {
			pending = append(pending, s)
		}
	}
	return pending
}

func TestGenerateRegenerationKeepsOnePendingRow(t *testing.T) {
	db, docs, _, suggs := testSystems(t)
	doc := createDocument(t, docs)

	generate(t, db, docs, suggs, doc.ID, []signals.FieldValue{
		{FieldCode: fields.CodeCorrespondent, Value: "Acme Corp", Confidence: 0.6, Source: signals.SourceAI},
	})

	t.Run("stronger proposal replaces value and source", func(t *testing.T) {
		generate(t, db, docs, suggs, doc.ID, []signals.FieldValue{
			{FieldCode: fields.CodeCorrespondent, Value: "Acme Corporation", Confidence: 0.9, Source: signals.SourceRule},
		})

		pending := pendingFor(t, suggs, doc.ID)
		if len(pending) != 1 {
			t.Fatalf("pending rows = %d, want 1", len(pending))
		}
		s := pending[0]
		if s.SuggestedValue != "Acme Corporation" {
			t.Errorf("value = %q, want %q", s.SuggestedValue, "Acme Corporation")
		}
		if s.Source != signals.SourceRule {
			t.Errorf("source = %q, want %q", s.Source, signals.SourceRule)
		}
		if s.Confidence != 0.9 {
			t.Errorf("confidence = %v, want 0.9", s.Confidence)
		}
	})

	t.Run("weaker proposal never downgrades", func(t *testing.T) {
		generate(t, db, docs, suggs, doc.ID, []signals.FieldValue{
			{FieldCode: fields.CodeCorrespondent, Value: "Acme Ltd", Confidence: 0.3, Source: signals.SourceAI},
		})

		pending := pendingFor(t, suggs, doc.ID)
		if len(pending) != 1 {
			t.Fatalf("pending rows = %d, want 1", len(pending))
		}
		s := pending[0]
		if s.SuggestedValue != "Acme Corporation" {
			t.Errorf("value = %q, want %q", s.SuggestedValue, "Acme Corporation")
		}
		if s.Confidence != 0.9 {
			t.Errorf("confidence = %v, want 0.9", s.Confidence)
		}
	})
}

func TestApplyIsTerminal(t *testing.T) {
	db, docs, trail, suggs := testSystems(t)
	doc := createDocument(t, docs)

	generated := generate(t, db, docs, suggs, doc.ID, []signals.FieldValue{
		{FieldCode: fields.CodeDocumentType, Value: "invoice", Confidence: 0.7, Source: signals.SourceAI},
	})
	if len(generated) != 1 {
		t.Fatalf("generated = %d suggestions, want 1", len(generated))
	}

	applied, err := suggs.Apply(context.Background(), generated[0].ID, suggestions.ResolveCommand{Actor: "alice"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Status != suggestions.StatusApplied {
		t.Errorf("status = %q, want %q", applied.Status, suggestions.StatusApplied)
	}
	if applied.ResolvedBy == nil || *applied.ResolvedBy != "alice" {
		t.Errorf("resolved_by = %v, want alice", applied.ResolvedBy)
	}

	fresh, err := docs.Find(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("find document: %v", err)
	}
	if fresh.DocumentType != "invoice" {
		t.Errorf("document_type = %q, want %q", fresh.DocumentType, "invoice")
	}

	history, err := trail.History(context.Background(), doc.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	entry := history[0]
	if entry.Source != signals.SourceAI {
		t.Errorf("entry source = %q, want %q", entry.Source, signals.SourceAI)
	}
	if entry.ActorID == nil || *entry.ActorID != "alice" {
		t.Errorf("entry actor = %v, want alice", entry.ActorID)
	}
	if entry.NewValue != "invoice" {
		t.Errorf("entry new_value = %q, want %q", entry.NewValue, "invoice")
	}

	if _, err := suggs.Apply(context.Background(), generated[0].ID, suggestions.ResolveCommand{Actor: "bob"}); !errors.Is(err, suggestions.ErrConflict) {
		t.Errorf("second apply: err = %v, want ErrConflict", err)
	}
	if _, err := suggs.Ignore(context.Background(), generated[0].ID, suggestions.ResolveCommand{Actor: "bob"}); !errors.Is(err, suggestions.ErrConflict) {
		t.Errorf("ignore after apply: err = %v, want ErrConflict", err)
	}
}

func TestIgnoreIsTerminal(t *testing.T) {
	db, docs, _, suggs := testSystems(t)
	doc := createDocument(t, docs)

	generated := generate(t, db, docs, suggs, doc.ID, []signals.FieldValue{
		{FieldCode: fields.CodeDocumentType, Value: "receipt", Confidence: 0.5, Source: signals.SourceAI},
	})
	if len(generated) != 1 {
		t.Fatalf("generated = %d suggestions, want 1", len(generated))
	}

	ignored, err := suggs.Ignore(context.Background(), generated[0].ID, suggestions.ResolveCommand{Actor: "alice"})
	if err != nil {
		t.Fatalf("ignore: %v", err)
	}
	if ignored.Status != suggestions.StatusIgnored {
		t.Errorf("status = %q, want %q", ignored.Status, suggestions.StatusIgnored)
	}

	fresh, err := docs.Find(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("find document: %v", err)
	}
	if fresh.DocumentType != "" {
		t.Errorf("document_type = %q, want empty", fresh.DocumentType)
	}

	if _, err := suggs.Apply(context.Background(), generated[0].ID, suggestions.ResolveCommand{Actor: "bob"}); !errors.Is(err, suggestions.ErrConflict) {
		t.Errorf("apply after ignore: err = %v, want ErrConflict", err)
	}
}
