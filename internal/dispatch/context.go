package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"gallery-ingest/internal/logging"
)

// ErrLoopClosed is returned by Loop.Post after the loop has stopped.
var ErrLoopClosed = errors.New("dispatch loop closed")

// Context runs functions on an execution context owned by someone else.
// Post must not run fn synchronously on the calling goroutine.
type Context interface {
	Post(fn func()) error
}

// ContextFunc adapts a scheduling function to a Context.
type ContextFunc func(fn func()) error

// Post calls f(fn).
func (f ContextFunc) Post(fn func()) error {
	return f(fn)
}

// Loop is a Context whose functions run, in order, on the goroutine that
// calls Run.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

// NewLoop returns a loop that accepts posts immediately. Nothing runs until
// Run is called.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn. It fails with ErrLoopClosed once the loop is closed.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLoopClosed
	}
	l.queue = append(l.queue, fn)

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run executes posted functions until ctx is done or Close is called. Work
// already queued at that point still runs before Run returns. Run must be
// called at most once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		for _, fn := range l.take() {
			l.execute(fn)
		}

		l.mu.Lock()
		closed, pending := l.closed, len(l.queue)
		l.mu.Unlock()
		if closed {
			if pending == 0 {
				return
			}
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Close()
		}
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("dispatch: posted function panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// Close stops the loop from accepting posts and wakes Run so it can drain
// and return.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
