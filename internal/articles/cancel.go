package articles

import (
	"context"
	"sync"
)

// cancelSet holds the cancel handle of every outstanding request.
// Closing it cancels them all and refuses new ones.
type cancelSet struct {
	mu      sync.Mutex
	next    uint64
	cancels map[uint64]context.CancelFunc
	closed  bool
}

func newCancelSet() *cancelSet {
	return &cancelSet{cancels: make(map[uint64]context.CancelFunc)}
}

// add registers a new request context. ok is false once the set is closed.
func (s *cancelSet) add() (ctx context.Context, token uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, false
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.next++
	s.cancels[s.next] = cancel
	return ctx, s.next, true
}

// remove releases a finished request
func (s *cancelSet) remove(token uint64) {
	s.mu.Lock()
	cancel, ok := s.cancels[token]
	delete(s.cancels, token)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *cancelSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

func (s *cancelSet) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close cancels every outstanding request
func (s *cancelSet) close() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = make(map[uint64]context.CancelFunc)
	s.closed = true
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
