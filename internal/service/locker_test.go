package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	inside, maxInside := 0, 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "user:1")
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
	assert.Empty(t, l.slots)
}

func TestLocalLockerHonorsContext(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 不同 key 互不影响
	other, err := l.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
	assert.Empty(t, l.slots)
}

func TestLocalLockerDropsIdleKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		unlock, err := l.Lock(ctx, progressLockKey(uint(i)))
		require.NoError(t, err)
		unlock()
	}
	assert.Empty(t, l.slots)

	// 有等待者时保留，最后一个释放后移除
	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	acquired := make(chan func())
	go func() {
		next, err := l.Lock(ctx, "k")
		if !assert.NoError(t, err) {
			close(acquired)
			return
		}
		acquired <- next
	}()

	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.slots["k"] != nil && l.slots["k"].refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	next, ok := <-acquired
	require.True(t, ok)
	l.mu.Lock()
	assert.Len(t, l.slots, 1)
	l.mu.Unlock()

	next()
	assert.Empty(t, l.slots)
}
