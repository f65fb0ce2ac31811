package references

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolutionCache_SetGet_Success(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()

	_, ok := cache.Get("#/a", TargetSchema)
	assert.False(t, ok)

	cache.Set("#/a", TargetSchema, "schema")
	cache.Set("#/a", TargetNone, "untyped")

	v, ok := cache.Get("#/a", TargetSchema)
	require.True(t, ok)
	assert.Equal(t, "schema", v)

	v, ok = cache.Get("#/a", TargetNone)
	require.True(t, ok)
	assert.Equal(t, "untyped", v, "target type is part of the key")

	assert.Equal(t, 2, cache.Len())
}

func TestResolutionCache_Set_NeverOverwrites(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()
	cache.Set("#/a", TargetNone, "first")
	cache.Set("#/a", TargetNone, "second")

	v, ok := cache.Get("#/a", TargetNone)
	require.True(t, ok)
	assert.Equal(t, "first", v)
}

func TestResolutionCache_Claim_Success(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()

	_, state := cache.claim("#/a", TargetNone)
	assert.Equal(t, cacheMiss, state)
	assert.True(t, cache.Has("#/a", TargetNone), "claimed key is present")

	_, ok := cache.Get("#/a", TargetNone)
	assert.False(t, ok, "claimed key has no value yet")

	_, state = cache.claim("#/a", TargetNone)
	assert.Equal(t, cachePending, state)

	cache.Set("#/a", TargetNone, 42)

	v, state := cache.claim("#/a", TargetNone)
	assert.Equal(t, cacheDone, state)
	assert.Equal(t, 42, v)
}

func TestResolutionCache_Release_Success(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()

	cache.claim("#/a", TargetNone)
	cache.release("#/a", TargetNone)
	assert.False(t, cache.Has("#/a", TargetNone))

	cache.Set("#/b", TargetNone, "done")
	cache.release("#/b", TargetNone)
	assert.True(t, cache.Has("#/b", TargetNone), "resolved keys are never released")
}

func TestResolutionCache_Clear_Success(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()
	cache.Set("#/a", TargetNone, 1)
	cache.claim("#/b", TargetNone)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestResolutionCache_ZeroValue_Success(t *testing.T) {
	t.Parallel()

	var cache ResolutionCache
	cache.Set("#/a", TargetNone, 1)

	v, ok := cache.Get("#/a", TargetNone)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestResolutionCache_Concurrent_Success(t *testing.T) {
	t.Parallel()

	cache := NewResolutionCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("#/components/schemas/S%d", i%10)
			cache.Set(key, TargetSchema, i)
			_, _ = cache.Get(key, TargetSchema)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Len())
}
