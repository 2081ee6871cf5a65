package api

import (
	"github.com/arbiterhq/arbiter/internal/audit"
	"github.com/arbiterhq/arbiter/internal/classifier"
	"github.com/arbiterhq/arbiter/internal/config"
	"github.com/arbiterhq/arbiter/internal/documents"
	"github.com/arbiterhq/arbiter/internal/engine"
	"github.com/arbiterhq/arbiter/internal/rules"
	"github.com/arbiterhq/arbiter/internal/suggestions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Rules       rules.System
	Documents   documents.System
	Suggestions suggestions.System
	Audit       audit.System
	Engine      engine.System
}

// NewDomain creates all domain systems from the API runtime. The audit
// system doubles as the engine's learned-history collaborator; the
// extraction layer is an external service and stays unwired here.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	conn := runtime.Database.Connection()

	docSystem := documents.New(conn, runtime.Logger, runtime.Pagination)
	ruleSystem := rules.New(conn, runtime.Logger, runtime.Pagination)
	auditSystem := audit.New(conn, docSystem, runtime.Logger, runtime.Pagination)
	suggestionSystem := suggestions.New(conn, docSystem, auditSystem, runtime.Logger, runtime.Pagination)

	collaborators := engine.Collaborators{
		History: auditSystem,
	}
	if c := classifier.New(cfg.Classifier, runtime.Logger); c != nil {
		collaborators.Classifier = c
	}

	engineSystem := engine.New(
		conn,
		ruleSystem,
		docSystem,
		suggestionSystem,
		auditSystem,
		collaborators,
		cfg.Engine,
		runtime.Logger,
	)

	return &Domain{
		Rules:       ruleSystem,
		Documents:   docSystem,
		Suggestions: suggestionSystem,
		Audit:       auditSystem,
		Engine:      engineSystem,
	}
}
