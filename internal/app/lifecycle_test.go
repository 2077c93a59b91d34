package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle(delay time.Duration) *Lifecycle {
	l := NewLifecycle(delay, nil)
	l.tick = 5 * time.Millisecond
	return l
}

// markDisconnected backdates the last heartbeat so no grace period applies.
func markDisconnected(l *Lifecycle) {
	l.mu.Lock()
	l.pinged = true
	l.lastPing = time.Now().Add(-time.Minute)
	l.mu.Unlock()
}

func waitDone(t *testing.T, l *Lifecycle, within time.Duration) bool {
	t.Helper()
	select {
	case <-l.Done():
		return true
	case <-time.After(within):
		return false
	}
}

func TestWatchShutsDownAfterDelay(t *testing.T) {
	l := newTestLifecycle(20 * time.Millisecond)
	markDisconnected(l)
	go l.Watch(context.Background())
	assert.True(t, waitDone(t, l, time.Second))
}

func TestWatchStaysUpWhilePinged(t *testing.T) {
	l := newTestLifecycle(10 * time.Millisecond)
	l.Ping()
	go l.Watch(context.Background())
	assert.False(t, waitDone(t, l, 100*time.Millisecond))
	l.Shutdown()
}

func TestPingCancelsCountdown(t *testing.T) {
	l := newTestLifecycle(500 * time.Millisecond)
	markDisconnected(l)
	go l.Watch(context.Background())

	time.Sleep(50 * time.Millisecond)
	require.False(t, waitDone(t, l, 0), "countdown must still be running")
	l.Ping()
	assert.False(t, waitDone(t, l, 600*time.Millisecond))
	l.Shutdown()
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	l := newTestLifecycle(time.Hour)
	l.Ping()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Watch(ctx)
	cancel()
	assert.True(t, waitDone(t, l, time.Second))
}

func TestShutdownIsIdempotent(t *testing.T) {
	l := newTestLifecycle(time.Hour)
	l.Shutdown()
	l.Shutdown()
	assert.True(t, waitDone(t, l, time.Second))
}
