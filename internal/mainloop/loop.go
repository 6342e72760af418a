// Package mainloop provides the single cooperative scheduler that owns all
// state observed by the presentation layer.
package mainloop

import (
	"context"
	"sync"
)

// Scheduler runs posted functions one at a time on the context that owns
// presentation state. Post must not block the caller for long.
type Scheduler interface {
	Post(fn func())
}

// Loop is a FIFO Scheduler drained either by Run on a dedicated goroutine or
// synchronously by Flush and Drain.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn. Posts after Close are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pop removes the oldest pending function, if any.
func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

// Run executes posted functions until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Flush()
		if l.isClosed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Flush runs every pending function on the calling goroutine, including
// functions posted while flushing. It returns how many ran.
func (l *Loop) Flush() int {
	n := 0
	for {
		fn, ok := l.pop()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Drain runs exactly n posted functions on the calling goroutine, waiting
// for each one to arrive.
func (l *Loop) Drain(ctx context.Context, n int) error {
	for n > 0 {
		if fn, ok := l.pop(); ok {
			fn()
			n--
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
	return nil
}

// Pending returns the number of queued functions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops accepting work and discards anything still queued.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
