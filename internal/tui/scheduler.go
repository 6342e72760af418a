package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/broadsheet/internal/mainloop"
)

// invokeMsg carries funcs posted to the UI scheduler. They run inside Update.
type invokeMsg struct {
	fns []func()
}

// ProgramScheduler adapts mainloop.Scheduler to Bubble Tea: posted funcs are
// delivered as messages and run on the program's event loop.
type ProgramScheduler struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

var _ mainloop.Scheduler = (*ProgramScheduler)(nil)

// NewProgramScheduler creates a scheduler with no pending work.
func NewProgramScheduler() *ProgramScheduler {
	return &ProgramScheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post queues fn for the event loop. Safe from any goroutine; never blocks.
func (s *ProgramScheduler) Post(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default: // Already signalled
	}
}

func (s *ProgramScheduler) take() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := s.queue
	s.queue = nil
	return fns
}

// Next returns a command that waits for posted work. Update re-arms it after
// every invokeMsg, so exactly one is outstanding at a time.
func (s *ProgramScheduler) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			if fns := s.take(); len(fns) > 0 {
				return invokeMsg{fns: fns}
			}
			select {
			case <-s.wake:
			case <-s.done:
				return nil
			}
		}
	}
}

// Close drops pending work and releases any waiting Next command.
func (s *ProgramScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}
