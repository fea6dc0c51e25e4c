package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_GetSet(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns miss for unknown key", func(t *testing.T) {
		value, found, err := store.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, value)
	})

	t.Run("round-trips a value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "stores", []byte(`[{"store_id":1}]`), time.Hour))

		value, found, err := store.Get(ctx, "stores")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte(`[{"store_id":1}]`), value)
	})

	t.Run("overwrites an existing key", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k", []byte("old"), time.Hour))
		require.NoError(t, store.Set(ctx, "k", []byte("new"), time.Hour))

		value, found, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("new"), value)
	})

	t.Run("misses after expiration", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "shortlived", []byte("v"), 10*time.Millisecond))

		time.Sleep(20 * time.Millisecond)

		_, found, err := store.Get(ctx, "shortlived")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("non-positive TTL stores nothing", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "skipped", []byte("v"), 0))

		_, found, err := store.Get(ctx, "skipped")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	t.Run("deleting a missing key is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "missing"))
	})
}

func TestInMemoryStore_Cleanup(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "expired", []byte("v"), 5*time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", []byte("v"), time.Hour))
	time.Sleep(10 * time.Millisecond)

	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryStore_Close(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryStore()
		assert.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "shared", []byte("v"), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _, _ = store.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	_, found, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, found)
}
