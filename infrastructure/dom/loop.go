package dom

import (
	"context"
	"sync"
)

// Loop is a single-goroutine task queue. Post never blocks, so callers on
// other goroutines (browser callbacks, the broker) can hand work to the page
// without waiting for it.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

// NewLoop - creates an idle loop; call Run to start processing
func NewLoop() *Loop {
	return &Loop{signal: make(chan struct{}, 1)}
}

// Post - queues fn to run on the loop
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Do - runs fn on the loop and waits for it, or for ctx to end. A task
// still queued when ctx ends is skipped.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run - processes queued tasks in order until ctx is done
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.signal:
		}
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}
