package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datagov-chat/internal/model"
)

func newSQLiteStore(t *testing.T, path string) *SQLiteTurnStore {
	t.Helper()
	store, err := NewSQLiteTurnStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteAppendAndReadOrder(t *testing.T) {
	store := newSQLiteStore(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	first, err := store.Append(ctx, "s1", model.RoleUser, "hello")
	require.NoError(t, err)
	second, err := store.Append(ctx, "s1", model.RoleAssistant, "hi there")
	require.NoError(t, err)
	_, err = store.Append(ctx, "s2", model.RoleUser, "other session")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)

	turns, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "hi there", turns[1].Content)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
}

func TestSQLiteReadUnknownSession(t *testing.T) {
	store := newSQLiteStore(t, filepath.Join(t.TempDir(), "history.db"))

	turns, err := store.Read(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSQLiteClear(t *testing.T) {
	store := newSQLiteStore(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	_, err := store.Append(ctx, "s1", model.RoleUser, "hello")
	require.NoError(t, err)
	_, err = store.Append(ctx, "s2", model.RoleUser, "keep me")
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "s1"))
	require.NoError(t, store.Clear(ctx, "unknown"), "clearing an unknown session is not an error")

	cleared, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cleared)

	kept, err := store.Read(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestSQLiteDurability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewSQLiteTurnStore(path)
	require.NoError(t, err)
	_, err = store.Append(ctx, "s1", model.RoleUser, "survive restart")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := newSQLiteStore(t, path)
	turns, err := reopened.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "survive restart", turns[0].Content)
	assert.Equal(t, uint64(1), turns[0].Seq)

	next, err := reopened.Append(ctx, "s1", model.RoleAssistant, "welcome back")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Seq, "sequence continues across restarts")
}

func TestSQLiteSaveEvent(t *testing.T) {
	store := newSQLiteStore(t, filepath.Join(t.TempDir(), "history.db"))

	err := store.SaveEvent(context.Background(), &model.ConversationEvent{
		ID:        "evt-1",
		SessionID: "s1",
		Kind:      model.EventTurnAppended,
		Role:      model.RoleUser,
		Content:   "hello",
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
}
