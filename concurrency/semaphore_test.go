package concurrency

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSemaphoreAcquireRelease(t *testing.T) {
	s := NewDynamicBoundedSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !s.Locked() {
		t.Error("expected Locked() after exhausting capacity")
	}
	s.Release()
	if s.Locked() {
		t.Error("expected unlocked after Release")
	}
}

func TestSemaphoreBlocksAtCapacity(t *testing.T) {
	s := NewDynamicBoundedSemaphore(1)
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_ = s.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	s.Release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire should have unblocked after Release")
	}
}

func TestSemaphoreRaisingMaxWakesWaiters(t *testing.T) {
	s := NewDynamicBoundedSemaphore(1)
	_ = s.Acquire(context.Background())

	var wg sync.WaitGroup
	woken := make(chan int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Acquire(context.Background())
			woken <- i
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	s.SetMax(3) // capacity 3, 1 held, room for both waiters

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("raising max should have woken both waiters")
	}
}

func TestSemaphoreZeroMaxParksAcquire(t *testing.T) {
	s := NewDynamicBoundedSemaphore(0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Fatal("expected Acquire to block indefinitely when max is 0")
	}
}

func TestSemaphoreCancelledAcquireDoesNotConsumePermit(t *testing.T) {
	s := NewDynamicBoundedSemaphore(1)
	_ = s.Acquire(context.Background()) // hold the only permit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Fatal("expected the second Acquire to time out")
	}

	// Release the original permit; a fresh Acquire should succeed
	// immediately, proving the cancelled waiter never consumed it.
	s.Release()
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after release should succeed: %v", err)
	}
}

func TestSemaphoreLoweringMaxBelowOutstandingBlocksNewAcquires(t *testing.T) {
	s := NewDynamicBoundedSemaphore(2)
	_ = s.Acquire(context.Background())
	_ = s.Acquire(context.Background())

	s.SetMax(1)
	if !s.Locked() {
		t.Fatal("lowering max below outstanding should leave the semaphore locked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Acquire(ctx); err == nil {
		t.Fatal("expected Acquire to block until enough releases land")
	}

	s.Release()
	s.Release()
	if err := s.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire should succeed once releases caught up: %v", err)
	}
}
