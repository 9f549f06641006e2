package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datagov-chat/internal/model"
)

func TestMemoryStoreAppendReadClear(t *testing.T) {
	store := NewMemoryTurnStore()
	ctx := context.Background()

	_, err := store.Append(ctx, "s1", model.RoleUser, "one")
	require.NoError(t, err)
	_, err = store.Append(ctx, "s1", model.RoleAssistant, "two")
	require.NoError(t, err)

	turns, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, uint64(1), turns[0].Seq)
	assert.Equal(t, uint64(2), turns[1].Seq)

	unknown, err := store.Read(ctx, "s9")
	require.NoError(t, err)
	assert.Empty(t, unknown)

	require.NoError(t, store.Clear(ctx, "s1"))
	require.NoError(t, store.Clear(ctx, "s1"), "double clear is a no-op")
	cleared, err := store.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	store := NewMemoryTurnStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("s%d", i)
			for j := 0; j < 20; j++ {
				_, err := store.Append(ctx, sessionID, model.RoleUser, fmt.Sprintf("msg %d", j))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		turns, err := store.Read(ctx, fmt.Sprintf("s%d", i))
		require.NoError(t, err)
		require.Len(t, turns, 20)
		for j, turn := range turns {
			assert.Equal(t, uint64(j+1), turn.Seq)
		}
	}
}
