package session

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetPut(t *testing.T) {
	store := NewMemoryStore[string]()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "test-id", "test-value"))

	got, ok, err := store.Get(ctx, "test-id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "test-value", got)

	_, ok, err = store.Get(ctx, "non-existent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_OverwriteAndDelete(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "id", 10))
	require.NoError(t, store.Put(ctx, "id", 20))

	got, ok, err := store.Get(ctx, "id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, got)

	require.NoError(t, store.Delete(ctx, "id"))
	_, ok, err = store.Get(ctx, "id")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "id"))
}

func TestMemoryStore_NewID(t *testing.T) {
	store := NewMemoryStore[string]()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.NewID()
		assert.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true

		_, err := uuid.Parse(id)
		assert.NoError(t, err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "key", v))
			_, _, err := store.Get(ctx, "key")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_SatisfiesStore(t *testing.T) {
	var _ Store[int] = NewMemoryStore[int]()
	var _ Store[int] = (*PostgresStore[int])(nil)
}
