// Package classifier adapts an OpenAI-compatible chat completion endpoint
// into the engine's Classifier collaborator. The model's JSON output is
// untrusted: it is normalized into canonical field-value signals at this
// boundary and never reaches the merge policy raw.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/arbiterhq/arbiter/internal/signals"
)

const systemPrompt = `You classify business documents. Given document text,
propose values for these fields: title, correspondent, document_type,
document_date (YYYY-MM-DD), amount (decimal number), tags (comma-separated).
Respond with JSON only, in the shape
{"fields":[{"field_code":"...","value":"...","confidence":0.0}]}.
Confidence is between 0 and 1. Omit fields you cannot determine.`

// Classifier sends document text to an OpenAI-compatible model and returns
// normalized field-value signals.
type Classifier struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Classifier. Returns nil when the config disables it; the
// engine treats a nil collaborator as absent.
func New(cfg Config, logger *slog.Logger) *Classifier {
	if !cfg.Enabled {
		return nil
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Classifier{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger.With("system", "classifier"),
	}
}

// Classify sends the document text to the model and normalizes its response.
func (c *Classifier) Classify(ctx context.Context, documentID uuid.UUID, text string) ([]signals.FieldValue, error) {
	text = truncate(text, c.cfg.MaxContent)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: float32(c.cfg.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classify document %s: %w", documentID, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("classify document %s: empty response", documentID)
	}

	proposals, err := Normalize([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("classify document %s: %w", documentID, err)
	}

	c.logger.Debug("document classified",
		"document_id", documentID,
		"fields", len(proposals),
		"tokens", resp.Usage.TotalTokens,
	)
	return proposals, nil
}

// truncate caps text at max bytes without splitting a UTF-8 sequence, so the
// model never receives a mangled trailing rune. A max of zero disables the
// cap.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
