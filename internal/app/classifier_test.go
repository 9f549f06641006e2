package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datagov-chat/internal/ai"
	"datagov-chat/internal/model"
)

type scriptedCompleter struct {
	reply        string
	err          error
	lastMessages []ai.ChatMessage
}

func (s *scriptedCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	s.lastMessages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestParseIntent(t *testing.T) {
	cases := []struct {
		reply string
		want  Intent
	}{
		{"DATASET", IntentDatasetRelated},
		{"dataset", IntentDatasetRelated},
		{" Dataset.\n", IntentDatasetRelated},
		{"GENERAL", IntentGeneral},
		{"general conversation", IntentGeneral},
		// ambiguous or malformed output defaults to dataset-related
		{"", IntentDatasetRelated},
		{"I am not sure what you mean", IntentDatasetRelated},
		{"GENERAL, or maybe DATASET", IntentDatasetRelated},
		{"42", IntentDatasetRelated},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseIntent(tc.reply), "reply %q", tc.reply)
	}
}

func TestClassifyIncludesHistory(t *testing.T) {
	llm := &scriptedCompleter{reply: "GENERAL"}
	classifier := NewIntentClassifier(llm, nil)

	history := []model.Turn{
		{Role: model.RoleUser, Content: "hello there"},
		{Role: model.RoleAssistant, Content: "hi, how can I help?"},
	}
	intent, err := classifier.Classify(context.Background(), "thanks", history)
	require.NoError(t, err)
	assert.Equal(t, IntentGeneral, intent)

	require.Len(t, llm.lastMessages, 2)
	assert.Equal(t, "system", llm.lastMessages[0].Role)
	assert.Contains(t, llm.lastMessages[1].Content, "hello there")
	assert.Contains(t, llm.lastMessages[1].Content, "Message: thanks")
}

func TestClassifyFailureReturnsSentinel(t *testing.T) {
	llm := &scriptedCompleter{err: errors.New("upstream timeout")}
	classifier := NewIntentClassifier(llm, nil)

	_, err := classifier.Classify(context.Background(), "what datasets exist?", nil)
	assert.ErrorIs(t, err, ErrClassificationUnavailable)
}
