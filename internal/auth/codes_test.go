package auth

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 18, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCodeStore(capacity int, ttl time.Duration, clock *fakeClock) *CodeStore {
	store := NewCodeStore(capacity, ttl)
	store.now = clock.Now
	return store
}

func TestCodeStore_PutGet(t *testing.T) {
	clock := newFakeClock()
	store := newTestCodeStore(5, 300*time.Second, clock)

	t.Run("missing client", func(t *testing.T) {
		_, ok := store.Get("nobody")
		assert.False(t, ok)
	})

	t.Run("stored code is returned", func(t *testing.T) {
		store.Put("c1", "AB12CD")
		got, ok := store.Get("c1")
		require.True(t, ok)
		assert.Equal(t, "AB12CD", got.Code)
		assert.Equal(t, clock.Now(), got.IssuedAt)
	})

	t.Run("new code overwrites previous", func(t *testing.T) {
		store.Put("c1", "FIRST")
		store.Put("c1", "SECOND")
		got, ok := store.Get("c1")
		require.True(t, ok)
		assert.Equal(t, "SECOND", got.Code)
		assert.Equal(t, 1, store.Len())
	})
}

func TestCodeStore_Expiry(t *testing.T) {
	clock := newFakeClock()
	store := newTestCodeStore(5, 300*time.Second, clock)

	store.Put("c1", "AB12CD")

	clock.Advance(299 * time.Second)
	_, ok := store.Get("c1")
	assert.True(t, ok, "code should still be live just before the TTL")

	clock.Advance(time.Second)
	_, ok = store.Get("c1")
	assert.False(t, ok, "code should be gone once the TTL elapsed")
	assert.Equal(t, 0, store.Len())
}

func TestCodeStore_OverwriteResetsTTL(t *testing.T) {
	clock := newFakeClock()
	store := newTestCodeStore(5, 300*time.Second, clock)

	store.Put("c1", "OLD")
	clock.Advance(200 * time.Second)
	store.Put("c1", "NEW")
	clock.Advance(200 * time.Second)

	got, ok := store.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "NEW", got.Code)
}

func TestCodeStore_CapacityEvictsLeastRecentlyUsed(t *testing.T) {
	clock := newFakeClock()
	store := newTestCodeStore(5, 300*time.Second, clock)

	for i := 1; i <= 5; i++ {
		store.Put(fmt.Sprintf("c%d", i), "CODE")
	}

	// touch c1 so c2 becomes the oldest
	_, ok := store.Get("c1")
	require.True(t, ok)

	store.Put("c6", "CODE")
	assert.Equal(t, 5, store.Len())

	_, ok = store.Get("c2")
	assert.False(t, ok, "least recently used client should be evicted")
	for _, id := range []string{"c1", "c3", "c4", "c5", "c6"} {
		_, ok := store.Get(id)
		assert.True(t, ok, id)
	}
}

func TestCodeStore_Concurrent(t *testing.T) {
	store := NewCodeStore(5, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i%8)
			store.Put(id, fmt.Sprintf("code-%d", i))
			store.Get(id)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 5)
}
