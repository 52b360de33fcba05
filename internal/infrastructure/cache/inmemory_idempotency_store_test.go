package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first mark succeeds, second is rejected", func(t *testing.T) {
		first, err := store.MarkProcessed(ctx, "op-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)

		second, err := store.MarkProcessed(ctx, "op-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, second)
	})

	t.Run("distinct keys do not collide", func(t *testing.T) {
		first, err := store.MarkProcessed(ctx, "op-2", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)
	})

	t.Run("expired key can be marked again", func(t *testing.T) {
		first, err := store.MarkProcessed(ctx, "op-3", 10*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, first)

		time.Sleep(20 * time.Millisecond)

		again, err := store.MarkProcessed(ctx, "op-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, again)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "known", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "known")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = store.MarkProcessed(ctx, "fleeting", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	processed, err = store.IsProcessed(ctx, "fleeting")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestInMemoryIdempotencyStore_Concurrency(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 20
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := store.MarkProcessed(ctx, "contended", time.Minute)
			assert.NoError(t, err)
			if first {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one caller should win the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestInMemoryIdempotencyStore_Size(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	assert.Equal(t, 0, store.Size())

	_, err := store.MarkProcessed(ctx, "a", time.Minute)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "b", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Size())
}
