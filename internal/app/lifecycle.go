// Package app wires the HTTP bridge, the embedded front end and the shutdown
// lifecycle into a runnable desktop research app.
package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// heartbeatGrace is how long after the last heartbeat a window still
	// counts as connected.
	heartbeatGrace = 3 * time.Second
	// launchGrace covers the gap between server start and the first window
	// opening.
	launchGrace = 30 * time.Second
)

// Lifecycle decides when the app should exit. Open front-end windows ping
// /api/_alive about once a second; once the pings stop, a countdown of the
// configured shutdown delay starts, and any new ping cancels it.
type Lifecycle struct {
	log   *zap.Logger
	delay time.Duration
	tick  time.Duration

	mu       sync.Mutex
	lastPing time.Time
	pinged   bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewLifecycle returns a Lifecycle that shuts down delay after the last
// client disappears.
func NewLifecycle(delay time.Duration, log *zap.Logger) *Lifecycle {
	if log == nil {
		log = zap.NewNop()
	}
	if delay < 0 {
		delay = 0
	}
	return &Lifecycle{
		log:      log,
		delay:    delay,
		tick:     time.Second,
		lastPing: time.Now(),
		done:     make(chan struct{}),
	}
}

// Ping records a client heartbeat. Satisfies bridge.Liveness.
func (l *Lifecycle) Ping() {
	l.mu.Lock()
	l.lastPing = time.Now()
	l.pinged = true
	l.mu.Unlock()
}

// Done is closed when the app should exit.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Shutdown requests an immediate exit.
func (l *Lifecycle) Shutdown() {
	l.doneOnce.Do(func() { close(l.done) })
}

// Watch blocks until the app should exit, either because ctx was cancelled or
// because no client sent a heartbeat for the shutdown delay.
func (l *Lifecycle) Watch(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	counting := false
	var remaining time.Duration
	for {
		select {
		case <-ctx.Done():
			l.Shutdown()
			return
		case <-l.done:
			return
		case <-ticker.C:
		}

		if l.connected() {
			if counting {
				l.log.Info("client reconnected, shutdown cancelled")
				counting = false
			}
			continue
		}
		if !counting {
			counting = true
			remaining = l.delay
			l.log.Info("no connected clients, shutting down soon",
				zap.Duration("delay", l.delay))
		}
		remaining -= l.tick
		if remaining < 0 {
			l.log.Info("no client reconnected, shutting down")
			l.Shutdown()
			return
		}
	}
}

func (l *Lifecycle) connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	grace := heartbeatGrace
	if !l.pinged {
		grace = launchGrace
	}
	return time.Since(l.lastPing) <= grace
}
