// Package engine coordinates a document's classification pass: run the rule
// pipeline, gather collaborator signals, merge them into one value per
// field, and persist the outcome as reviewable suggestions. Work on a single
// document is serialized; documents in a batch run concurrently up to a
// bounded worker pool.
package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/rules"
	"github.com/arbiterhq/arbiter/internal/signals"
	"github.com/arbiterhq/arbiter/internal/suggestions"
	"github.com/arbiterhq/arbiter/pkg/locks"
	"github.com/arbiterhq/arbiter/pkg/repository"
)

// ruleConfidence is the confidence assigned to deterministic rule output.
const ruleConfidence = 1.0

// Options controls one processing pass.
type Options struct {
	// ApplySuggestions auto-applies generated suggestions whose confidence
	// meets the configured threshold.
	ApplySuggestions bool `json:"apply_suggestions"`
}

// Result is the outcome of processing one document.
type Result struct {
	DocumentID     uuid.UUID                     `json:"document_id"`
	MatchedRuleIDs []uuid.UUID                   `json:"matched_rule_ids"`
	StoppedBy      *uuid.UUID                    `json:"stopped_by,omitempty"`
	Merged         map[string]signals.FieldValue `json:"merged"`
	Suggestions    []suggestions.Suggestion      `json:"suggestions"`
	AutoApplied    []suggestions.Suggestion      `json:"auto_applied,omitempty"`
}

// BatchFailure records one document a batch could not process.
type BatchFailure struct {
	DocumentID uuid.UUID `json:"document_id"`
	Error      string    `json:"error"`
}

// BatchResult partitions a batch run. One document's failure never stops
// the others.
type BatchResult struct {
	Processed []Result       `json:"processed"`
	Failed    []BatchFailure `json:"failed"`
}

// System defines the public contract for classification orchestration.
type System interface {
	Handler() *Handler

	// Process runs one full classification pass over a document.
	// Concurrent calls for the same document are serialized.
	Process(ctx context.Context, documentID uuid.UUID, opts Options) (*Result, error)

	// ProcessBatch processes documents concurrently up to the configured
	// worker bound, collecting per-document failures. Cancellation takes
	// effect between documents, never mid-document.
	ProcessBatch(ctx context.Context, documentIDs []uuid.UUID, opts Options) (*BatchResult, error)

	// EditField commits a manual edit of one classification field together
	// with its manual-source audit entry.
	EditField(ctx context.Context, documentID uuid.UUID, cmd EditCommand) (*documents.Document, error)
}

// Collaborators are the optional external signal sources. A nil collaborator
// contributes an empty signal set.
type Collaborators struct {
	Classifier signals.Classifier
	Extractor  signals.Extractor
	History    signals.HistorySource
}

type orchestrator struct {
	db            *sql.DB
	rules         rules.System
	docs          documents.System
	suggs         suggestions.System
	trail         audit.System
	collaborators Collaborators
	locks         *locks.KeyedMutex[uuid.UUID]
	cfg           Config
	logger        *slog.Logger
}

// New creates the classification orchestrator.
func New(
	db *sql.DB,
	ruleSys rules.System,
	docSys documents.System,
	suggSys suggestions.System,
	trail audit.System,
	collaborators Collaborators,
	cfg Config,
	logger *slog.Logger,
) System {
	return &orchestrator{
		db:            db,
		rules:         ruleSys,
		docs:          docSys,
		suggs:         suggSys,
		trail:         trail,
		collaborators: collaborators,
		locks:         locks.NewKeyedMutex[uuid.UUID](),
		cfg:           cfg,
		logger:        logger.With("system", "engine"),
	}
}

func (o *orchestrator) Handler() *Handler {
	return NewHandler(o, o.logger)
}

func (o *orchestrator) Process(ctx context.Context, documentID uuid.UUID, opts Options) (*Result, error) {
	unlock := o.locks.Lock(documentID)
	defer unlock()

	doc, err := o.docs.Find(ctx, documentID)
	if err != nil {
		return nil, err
	}

	active, err := o.rules.Active(ctx)
	if err != nil {
		return nil, err
	}

	run := rules.Run(active, doc.FieldValues())
	if err := o.rules.LogExecutions(ctx, documentID, run.Executions); err != nil {
		return nil, err
	}

	merged := signals.Merge(
		ruleSignals(run),
		o.extractionSignals(ctx, documentID),
		o.historySignals(ctx, doc.Correspondent),
		o.classifierSignals(ctx, documentID, doc.Content),
	)

	result, err := repository.WithTx(ctx, o.db, func(tx *sql.Tx) (*Result, error) {
		locked, err := o.docs.Lock(ctx, tx, documentID)
		if err != nil {
			return nil, err
		}

		generated, err := o.suggs.Generate(ctx, tx, locked, flatten(merged))
		if err != nil {
			return nil, err
		}

		result := &Result{
			DocumentID:     documentID,
			MatchedRuleIDs: run.MatchedRuleIDs,
			StoppedBy:      run.StoppedBy,
			Merged:         merged,
			Suggestions:    generated,
		}

		if !opts.ApplySuggestions {
			return result, nil
		}

		for _, s := range generated {
			if s.Status != suggestions.StatusPending || s.Confidence < o.cfg.AutoApplyThreshold {
				continue
			}
			applied, err := o.suggs.AutoApply(ctx, tx, locked, s)
			if err != nil {
				return nil, err
			}
			result.AutoApplied = append(result.AutoApplied, *applied)
		}

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("document processed",
		"document_id", documentID,
		"matched_rules", len(result.MatchedRuleIDs),
		"suggestions", len(result.Suggestions),
		"auto_applied", len(result.AutoApplied),
	)
	return result, nil
}

func (o *orchestrator) ProcessBatch(ctx context.Context, documentIDs []uuid.UUID, opts Options) (*BatchResult, error) {
	result := &BatchResult{
		Processed: []Result{},
		Failed:    []BatchFailure{},
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.BatchWorkers)

	for _, id := range documentIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				result.Failed = append(result.Failed, BatchFailure{DocumentID: id, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			processed, err := o.Process(gctx, id, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, BatchFailure{DocumentID: id, Error: err.Error()})
				return nil
			}
			result.Processed = append(result.Processed, *processed)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Info("batch processed",
		"requested", len(documentIDs),
		"processed", len(result.Processed),
		"failed", len(result.Failed),
	)
	return result, nil
}

// ruleSignals converts the pipeline's final field assignments into signals.
// Rule output is deterministic, so it carries full confidence and relies on
// source precedence against manual and history signals.
func ruleSignals(run rules.RunResult) []signals.FieldValue {
	out := make([]signals.FieldValue, 0, len(run.Fields))
	for code, value := range run.Fields {
		out = append(out, signals.FieldValue{
			FieldCode:  code,
			Value:      value,
			Confidence: ruleConfidence,
			Source:     signals.SourceRule,
		})
	}
	return out
}

// collaborator failures degrade to an empty signal set so an unreachable
// classifier or extractor never fails a processing pass.

func (o *orchestrator) classifierSignals(ctx context.Context, documentID uuid.UUID, text string) []signals.FieldValue {
	if o.collaborators.Classifier == nil || text == "" {
		return nil
	}

	proposals, err := o.collaborators.Classifier.Classify(ctx, documentID, text)
	if err != nil {
		o.logger.Warn("classifier unavailable", "document_id", documentID, "error", err)
		return nil
	}
	return proposals
}

func (o *orchestrator) extractionSignals(ctx context.Context, documentID uuid.UUID) []signals.FieldValue {
	if o.collaborators.Extractor == nil {
		return nil
	}

	proposals, err := o.collaborators.Extractor.ExtractAll(ctx, documentID)
	if err != nil {
		o.logger.Warn("extractor unavailable", "document_id", documentID, "error", err)
		return nil
	}
	return proposals
}

func (o *orchestrator) historySignals(ctx context.Context, correspondent string) []signals.FieldValue {
	if o.collaborators.History == nil || correspondent == "" {
		return nil
	}

	proposals, err := o.collaborators.History.LearnedValues(ctx, correspondent)
	if err != nil {
		o.logger.Warn("history lookup failed", "correspondent", correspondent, "error", err)
		return nil
	}
	return proposals
}

// flatten orders merged values by field code so suggestion generation is
// deterministic.
func flatten(merged map[string]signals.FieldValue) []signals.FieldValue {
	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]signals.FieldValue, 0, len(codes))
	for _, code := range codes {
		out = append(out, merged[code])
	}
	return out
}
