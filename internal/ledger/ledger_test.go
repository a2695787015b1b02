package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExhausted(t *testing.T) {
	assert.False(t, Exhausted(0, 1000))
	assert.False(t, Exhausted(3, 2))
	assert.True(t, Exhausted(3, 3))
	assert.True(t, Exhausted(3, 4))
}

func TestLocker_SerializesSameEvent(t *testing.T) {
	l := NewLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background(), 1))
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			l.Release(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len())
}

func TestLocker_IndependentEvents(t *testing.T) {
	l := NewLocker()
	require.NoError(t, l.Acquire(context.Background(), 1))
	defer l.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Acquire(ctx, 2))
	l.Release(2)
}

func TestLocker_AcquireTimesOut(t *testing.T) {
	l := NewLocker()
	require.NoError(t, l.Acquire(context.Background(), 7))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx, 7)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Len())

	l.Release(7)
	assert.Equal(t, 0, l.Len())
}
