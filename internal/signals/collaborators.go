package signals

import (
	"context"

	"github.com/google/uuid"
)

// Classifier is the external AI classifier collaborator. Implementations must
// normalize the untrusted external result into FieldValues at this boundary;
// the rest of the engine never handles optional or untyped data.
type Classifier interface {
	Classify(ctx context.Context, documentID uuid.UUID, text string) ([]FieldValue, error)
}

// Extractor runs template-driven field extraction for a document.
type Extractor interface {
	ExtractAll(ctx context.Context, documentID uuid.UUID) ([]FieldValue, error)
}

// HistorySource looks up previously learned corrections, optionally scoped
// to a correspondent.
type HistorySource interface {
	LearnedValues(ctx context.Context, correspondent string) ([]FieldValue, error)
}
