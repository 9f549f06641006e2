package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"datagov-chat/internal/ai"
	"datagov-chat/internal/model"
)

// Intent is the binary classification of an incoming message.
type Intent int

const (
	IntentDatasetRelated Intent = iota
	IntentGeneral
)

func (i Intent) String() string {
	if i == IntentGeneral {
		return "general"
	}
	return "dataset_related"
}

const classifierSystemPrompt = `You decide whether a user message is asking about datasets available on the data.gov.ie open data portal.

Reply with exactly one word:
DATASET - the message asks about data, datasets, statistics, or discoverable topics.
GENERAL - the message is general conversation (greetings, thanks, small talk).

Reply with that single word and nothing else.`

// IntentClassifier delegates the binary decision to an LLM with a
// constrained prompt and defensively parses whatever comes back.
type IntentClassifier struct {
	llm    Completer
	logger *zap.Logger
}

func NewIntentClassifier(llm Completer, logger *zap.Logger) *IntentClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentClassifier{llm: llm, logger: logger}
}

// Classify returns the intent for message given the prior history. A failed
// LLM call returns ErrClassificationUnavailable; the caller decides the
// fallback path.
func (c *IntentClassifier) Classify(ctx context.Context, message string, history []model.Turn) (Intent, error) {
	messages := []ai.ChatMessage{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: classifierUserPrompt(message, history)},
	}

	reply, err := c.llm.Complete(ctx, messages)
	if err != nil {
		return IntentGeneral, fmt.Errorf("%w: %v", ErrClassificationUnavailable, err)
	}

	intent := parseIntent(reply)
	c.logger.Debug("message classified",
		zap.String("intent", intent.String()),
		zap.String("raw_reply", strings.TrimSpace(reply)))
	return intent, nil
}

func classifierUserPrompt(message string, history []model.Turn) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, turn := range history {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Message: ")
	b.WriteString(message)
	return b.String()
}

// parseIntent maps the model's free-text reply to an Intent. Anything
// ambiguous or malformed defaults to dataset-related: attempting retrieval
// costs one index query, while wrongly skipping it loses the answer. The
// default is global, never per-message.
func parseIntent(reply string) Intent {
	normalized := strings.ToUpper(strings.TrimSpace(reply))
	hasDataset := strings.Contains(normalized, "DATASET")
	hasGeneral := strings.Contains(normalized, "GENERAL")

	if hasGeneral && !hasDataset {
		return IntentGeneral
	}
	return IntentDatasetRelated
}
