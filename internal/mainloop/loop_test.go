package mainloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLoopFlushRunsInOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	if n := l.Flush(); n != 5 {
		t.Fatalf("Flush ran %d funcs, want 5", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got order %v, want ascending", got)
		}
	}
	if l.Pending() != 0 {
		t.Errorf("Pending = %d after flush", l.Pending())
	}
}

func TestLoopFlushIncludesNestedPosts(t *testing.T) {
	l := NewLoop()
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})

	if n := l.Flush(); n != 2 {
		t.Fatalf("Flush ran %d funcs, want 2", n)
	}
	if len(got) != 2 || got[0] != "outer" || got[1] != "inner" {
		t.Errorf("got %v", got)
	}
}

func TestLoopDrainWaitsForPosts(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Post(func() { close(done) })
	}()

	if err := l.Drain(ctx, 1); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("posted func did not run")
	}
}

func TestLoopDrainHonorsContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Drain(ctx, 1); err != context.DeadlineExceeded {
		t.Errorf("Drain error = %v, want deadline exceeded", err)
	}
}

func TestLoopRunSerializesPosts(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run(ctx) }()

	// counter is only touched on the loop goroutine, so no lock guards it
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			l.Post(func() {
				counter++
				wg.Done()
			})
		}()
	}
	wg.Wait()

	result := make(chan int, 1)
	l.Post(func() { result <- counter })
	select {
	case got := <-result:
		if got != 50 {
			t.Errorf("counter = %d, want 50", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run posted func")
	}

	l.Close()
	select {
	case err := <-runDone:
		if err != nil {
			t.Errorf("Run returned %v after Close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestLoopDropsPostsAfterClose(t *testing.T) {
	l := NewLoop()
	l.Post(func() { t.Error("queued func ran after Close") })
	l.Close()
	l.Post(func() { t.Error("func posted after Close ran") })

	if n := l.Flush(); n != 0 {
		t.Errorf("Flush ran %d funcs after Close", n)
	}
}
