package cache_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/cache"
)

func TestTTLBoundary(t *testing.T) {
	clock := time2.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := cache.New[string](clock)

	c.Set("k", "v", 5*time.Second)

	clock.Advance(4 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted by the read")
}

func TestNoTTLPersistsUntilDelete(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	c := cache.New[int](clock)

	c.Set("decimals", 6, 0)
	clock.Advance(24 * 365 * time.Hour)

	v, ok := c.Get("decimals")
	require.True(t, ok)
	assert.Equal(t, 6, v)

	assert.True(t, c.Delete("decimals"))
	assert.False(t, c.Delete("decimals"))
	_, ok = c.Get("decimals")
	assert.False(t, ok)
}

func TestSetOverwritesAndRefreshesExpiry(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	c := cache.New[string](clock)

	c.Set("k", "old", 5*time.Second)
	clock.Advance(4 * time.Second)
	c.Set("k", "new", 5*time.Second)
	clock.Advance(4 * time.Second)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCloneAndEvictHook(t *testing.T) {
	clock := time2.NewMockClock(time.Now())
	var evicted [][]byte
	c := cache.New[[]byte](clock,
		cache.WithClone(bytes.Clone),
		cache.WithEvict(func(_ string, v []byte) {
			evicted = append(evicted, v)
			clear(v)
		}),
	)

	secret := []byte{1, 2, 3}
	c.Set("k", secret, time.Second)
	secret[0] = 9

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got, "cache must hold its own copy")

	got[1] = 9
	again, _ := c.Get("k")
	assert.Equal(t, []byte{1, 2, 3}, again, "callers must not alias the cached value")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	require.Len(t, evicted, 1)
	assert.Equal(t, []byte{0, 0, 0}, evicted[0])
}

func TestConcurrentAccess(t *testing.T) {
	c := cache.New[int](time2.NewMockClock(time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i, time.Minute)
				c.Get(key)
				if j%7 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 10)
}
