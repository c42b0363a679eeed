package progress

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}

func TestKeyedMutex_SlotsDroppedAfterUnlock(t *testing.T) {
	var k keyedMutex
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		unlock, err := k.lock(ctx, fmt.Sprintf("u1/c%d", i))
		require.NoError(t, err)
		unlock()
	}
	assert.Zero(t, k.size())
}

func TestKeyedMutex_SlotKeptWhileWaiting(t *testing.T) {
	var k keyedMutex
	ctx := context.Background()
	unlock, err := k.lock(ctx, "u1/c1")
	require.NoError(t, err)

	acquired := make(chan func(), 1)
	go func() {
		u, err := k.lock(ctx, "u1/c1")
		assert.NoError(t, err)
		acquired <- u
	}()
	time.Sleep(50 * time.Millisecond)

	unlock()
	assert.Equal(t, 1, k.size())

	select {
	case u := <-acquired:
		u()
	case <-time.After(5 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
	assert.Zero(t, k.size())
}

func TestKeyedMutex_CanceledWaiterReleasesSlot(t *testing.T) {
	var k keyedMutex
	unlock, err := k.lock(context.Background(), "u1/c1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.lock(ctx, "u1/c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, k.size())

	unlock()
	assert.Zero(t, k.size())
}

func TestKeyedMutex_DoubleUnlockIsHarmless(t *testing.T) {
	var k keyedMutex
	unlock, err := k.lock(context.Background(), "u1/c1")
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Zero(t, k.size())

	unlock, err = k.lock(context.Background(), "u1/c1")
	require.NoError(t, err)
	unlock()
}
