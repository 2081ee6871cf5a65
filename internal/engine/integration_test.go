//go:build integration

package engine_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/engine"
	"github.com/arbiterhq/arbiter/internal/fields"
	"github.com/arbiterhq/arbiter/internal/migrations"
	"github.com/arbiterhq/arbiter/internal/rules"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/internal/suggestions"
	"github.com/arbiterhq/arbiter/pkg/pagination"
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

func testSystems(t *testing.T) (documents.System, audit.System, engine.System) {
	t.Helper()

	db := testDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	page := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	docs := documents.New(db, logger, page)
	trail := audit.New(db, docs, logger, page)
	suggs := suggestions.New(db, docs, trail, logger, page)
	ruleSys := rules.New(db, logger, page)

	cfg := engine.Config{AutoApplyThreshold: 0.9, BatchWorkers: 2}
	sys := engine.New(db, ruleSys, docs, suggs, trail, engine.Collaborators{}, cfg, logger)
	return docs, trail, sys
}

func createDocument(t *testing.T, docs documents.System) *documents.Document {
	t.Helper()

	doc, err := docs.Create(context.Background(), documents.CreateCommand{
		Title:   "doc-" + uuid.NewString(),
		Content: "utility bill",
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestEditFieldRecordsManualEntry(t *testing.T) {
	docs, trail, sys := testSystems(t)
	doc := createDocument(t, docs)
	correspondent := "corr-" + uuid.NewString()

	edited, err := sys.EditField(context.Background(), doc.ID, engine.EditCommand{
		FieldCode: fields.CodeCorrespondent,
		Value:     "  " + correspondent + "  ",
		Actor:     "alice",
	})
	if err != nil {
		t.Fatalf("edit field: %v", err)
	}
	if edited.Correspondent != correspondent {
		t.Errorf("correspondent = %q, want %q", edited.Correspondent, correspondent)
	}

	history, err := trail.History(context.Background(), doc.ID, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	entry := history[0]
	if entry.Source != signals.SourceManual {
		t.Errorf("source = %q, want %q", entry.Source, signals.SourceManual)
	}
	if entry.ActorID == nil || *entry.ActorID != "alice" {
		t.Errorf("actor = %v, want alice", entry.ActorID)
	}
	if entry.OldValue != "" || entry.NewValue != correspondent {
		t.Errorf("entry %q -> %q, want %q -> %q", entry.OldValue, entry.NewValue, "", correspondent)
	}

	t.Run("same value is a no-op", func(t *testing.T) {
		if _, err := sys.EditField(context.Background(), doc.ID, engine.EditCommand{
			FieldCode: fields.CodeCorrespondent,
			Value:     correspondent,
			Actor:     "alice",
		}); err != nil {
			t.Fatalf("edit field: %v", err)
		}

		history, err := trail.History(context.Background(), doc.ID, 0)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(history) != 1 {
			t.Errorf("history entries = %d, want 1", len(history))
		}
	})
}

func TestEditFieldFeedsLearnedValues(t *testing.T) {
	docs, trail, sys := testSystems(t)
	doc := createDocument(t, docs)
	correspondent := "corr-" + uuid.NewString()

	if _, err := sys.EditField(context.Background(), doc.ID, engine.EditCommand{
		FieldCode: fields.CodeCorrespondent,
		Value:     correspondent,
		Actor:     "alice",
	}); err != nil {
		t.Fatalf("edit correspondent: %v", err)
	}
	if _, err := sys.EditField(context.Background(), doc.ID, engine.EditCommand{
		FieldCode: fields.CodeDocumentType,
		Value:     "invoice",
		Actor:     "alice",
	}); err != nil {
		t.Fatalf("edit document_type: %v", err)
	}

	learned, err := trail.LearnedValues(context.Background(), correspondent)
	if err != nil {
		t.Fatalf("learned values: %v", err)
	}
	if len(learned) != 1 {
		t.Fatalf("learned = %+v, want one document_type signal", learned)
	}

	got := learned[0]
	if got.FieldCode != fields.CodeDocumentType || got.Value != "invoice" {
		t.Errorf("learned %s = %q, want document_type = invoice", got.FieldCode, got.Value)
	}
	if math.Abs(got.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9", got.Confidence)
	}
	if got.Source != signals.SourceHistory {
		t.Errorf("source = %q, want %q", got.Source, signals.SourceHistory)
	}
}
