package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"datagov-chat/internal/ai"
	"datagov-chat/internal/index"
	"datagov-chat/internal/model"
)

// SessionStore is the durable, keyed conversation log. Read returns an
// empty history for unknown sessions; Clear is a no-op for them.
type SessionStore interface {
	Append(ctx context.Context, sessionID, role, content string) (model.Turn, error)
	Read(ctx context.Context, sessionID string) ([]model.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// HistoryCache fronts the SessionStore; all methods are best-effort.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Turn, bool, error)
	SetHistory(ctx context.Context, sessionID string, turns []model.Turn) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// EventPublisher emits audit events to the broker; failures never fail
// the request.
type EventPublisher interface {
	Publish(ctx context.Context, event model.ConversationEvent) error
}

// Completer issues one chat completion against a bound model.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Embedder converts one text into a query vector.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// DatasetIndex answers nearest-neighbor queries over the catalog.
type DatasetIndex interface {
	Query(vector []float32, k int) []index.Candidate
}

// ChatService orchestrates a message through classification, retrieval,
// prompt assembly, and composition, and owns the session lifecycle.
type ChatService struct {
	store      SessionStore
	cache      HistoryCache
	events     EventPublisher
	classifier *IntentClassifier
	index      DatasetIndex
	embedder   Embedder
	llm        Completer
	logger     *zap.Logger
	topK       int
}

func NewChatService(
	store SessionStore,
	cache HistoryCache,
	events EventPublisher,
	classifier *IntentClassifier,
	datasetIndex DatasetIndex,
	embedder Embedder,
	llm Completer,
	logger *zap.Logger,
	topK int,
) *ChatService {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		store:      store,
		cache:      cache,
		events:     events,
		classifier: classifier,
		index:      datasetIndex,
		embedder:   embedder,
		llm:        llm,
		logger:     logger,
		topK:       topK,
	}
}

// HandleMessage runs one message through the full pipeline and returns the
// assistant's reply. Exactly one user turn is appended per call; exactly
// one assistant turn is appended on success, none when composition fails.
func (s *ChatService) HandleMessage(ctx context.Context, sessionID, message string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	message = strings.TrimSpace(message)
	if sessionID == "" || message == "" {
		return "", ErrInvalidRequest
	}

	logger := s.logger.With(
		zap.String("session_id", sessionID),
		zap.String("request_id", uuid.NewString()),
	)

	// History is read before the current message is appended; the prompt
	// carries the current message separately.
	history, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	if err := s.appendTurn(ctx, sessionID, model.RoleUser, message); err != nil {
		logger.Error("append user turn failed", zap.String("stage", "append_user"), zap.Error(err))
		return "", fmt.Errorf("append user turn: %w", err)
	}

	intent, err := s.classifier.Classify(ctx, message, history)
	if err != nil {
		// Degrade to the general path rather than blocking the request.
		logger.Warn("classifier unavailable, falling back to general path",
			zap.String("stage", "classify"), zap.Error(err))
		intent = IntentGeneral
	}

	var prompt Prompt
	if intent == IntentDatasetRelated {
		candidates := s.retrieve(ctx, message, logger)
		prompt = BuildDatasetPrompt(message, history, candidates)
	} else {
		prompt = BuildGeneralPrompt(message, history)
	}

	reply, err := s.llm.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.User},
	})
	if err != nil {
		// No assistant turn is written for a failed completion.
		logger.Error("composition failed", zap.String("stage", "compose"), zap.Error(err))
		return "", ErrCompositionFailed
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "The model returned an empty response."
	}

	if err := s.appendTurn(ctx, sessionID, model.RoleAssistant, reply); err != nil {
		logger.Error("append assistant turn failed", zap.String("stage", "append_assistant"), zap.Error(err))
		return "", fmt.Errorf("append assistant turn: %w", err)
	}

	logger.Info("message handled", zap.String("intent", intent.String()))
	return reply, nil
}

// ClearSession hard-deletes all turns for the session. Unknown sessions
// are a successful no-op.
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidRequest
	}

	if s.cache != nil {
		if err := s.cache.DeleteHistory(ctx, sessionID); err != nil {
			s.logger.Warn("drop cached history failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.publishEvent(ctx, model.ConversationEvent{
		SessionID: sessionID,
		Kind:      model.EventSessionCleared,
	})
	return nil
}

// retrieve embeds the message and queries the index. Any failure degrades
// to an empty candidate list; the dataset-path prompt then instructs the
// model to state that none were found.
func (s *ChatService) retrieve(ctx context.Context, message string, logger *zap.Logger) []index.Candidate {
	vector, err := s.embedder.EmbedOne(ctx, message)
	if err != nil {
		logger.Warn("retrieval degraded to empty candidates",
			zap.String("stage", "retrieve"),
			zap.Error(fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)))
		return nil
	}
	return s.index.Query(vector, s.topK)
}

func (s *ChatService) loadHistory(ctx context.Context, sessionID string) ([]model.Turn, error) {
	if s.cache != nil {
		if dirty, err := s.cache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	history, err := s.store.Read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.cache.SetHistory(ctx, sessionID, history)
		}
	}
	return history, nil
}

func (s *ChatService) appendTurn(ctx context.Context, sessionID, role, content string) error {
	if s.cache != nil {
		_ = s.cache.MarkDirty(ctx, sessionID)
		_ = s.cache.DeleteHistory(ctx, sessionID)
	}
	if _, err := s.store.Append(ctx, sessionID, role, content); err != nil {
		return err
	}
	s.publishEvent(ctx, model.ConversationEvent{
		SessionID: sessionID,
		Kind:      model.EventTurnAppended,
		Role:      role,
		Content:   content,
	})
	return nil
}

func (s *ChatService) publishEvent(ctx context.Context, event model.ConversationEvent) {
	if s.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish conversation event failed",
			zap.String("session_id", event.SessionID),
			zap.String("kind", event.Kind),
			zap.Error(err))
	}
}
