package locker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerSerializesSameKey(t *testing.T) {
	l := New()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "partner:chain"))

	var acquired bool
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, l.Acquire(ctx, "partner:chain"))
		mu.Lock()
		acquired = true
		mu.Unlock()
		l.Release("partner:chain")
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.False(t, acquired, "second acquire must block while the key is held")
	mu.Unlock()

	l.Release("partner:chain")
	wg.Wait()

	mu.Lock()
	assert.True(t, acquired)
	mu.Unlock()
}

func TestLockerIndependentKeys(t *testing.T) {
	l := New()
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "a:1"))
	require.NoError(t, l.Acquire(ctx, "b:1"))
	l.Release("a:1")
	l.Release("b:1")
}

func TestLockerAcquireCancelled(t *testing.T) {
	l := New()
	require.NoError(t, l.Acquire(context.Background(), "key"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx, "key")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The holder can still release and reacquire after a cancelled waiter
	l.Release("key")
	require.NoError(t, l.Acquire(context.Background(), "key"))
	l.Release("key")
}
