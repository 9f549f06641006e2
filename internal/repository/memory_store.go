package repository

import (
	"context"
	"sync"
	"time"

	"datagov-chat/internal/model"
)

// MemoryTurnStore is an in-process session store for tests and local
// development. Not durable.
type MemoryTurnStore struct {
	mu     sync.RWMutex
	turns  map[string][]model.Turn
	nextID uint
}

func NewMemoryTurnStore() *MemoryTurnStore {
	return &MemoryTurnStore{turns: make(map[string][]model.Turn)}
}

func (s *MemoryTurnStore) Append(ctx context.Context, sessionID, role, content string) (model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	turn := model.Turn{
		ID:        s.nextID,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Seq:       uint64(len(s.turns[sessionID]) + 1),
		CreatedAt: time.Now().UTC(),
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return turn, nil
}

func (s *MemoryTurnStore) Read(ctx context.Context, sessionID string) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[sessionID]
	if len(stored) == 0 {
		return nil, nil
	}
	out := make([]model.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryTurnStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, sessionID)
	return nil
}
