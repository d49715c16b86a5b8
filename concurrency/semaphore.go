package concurrency

import (
	"container/list"
	"context"
	"sync"
)

// waiter is one blocked Acquire call, queued FIFO.
type waiter struct {
	ready chan struct{}
}

// DynamicBoundedSemaphore is a counting semaphore whose capacity
// (max_value) can be changed at runtime. value = max_value - outstanding;
// Locked reports whether value <= 0. Raising max_value wakes exactly as
// many queued waiters as the increase allows; lowering it below the
// current outstanding count drives value negative and simply blocks new
// acquires until enough releases bring it back up. This is modeled on
// golang.org/x/sync/semaphore's internal doubly-linked waiter queue, which
// does not expose a way to resize an already-constructed semaphore — the
// resize requirement is the reason this is hand-rolled rather than an
// import of that package.
type DynamicBoundedSemaphore struct {
	mu      sync.Mutex
	max     int
	cur     int
	waiters list.List
}

// NewDynamicBoundedSemaphore constructs a semaphore with the given initial
// capacity. A max of 0 parks every future Acquire until SetMax raises it.
func NewDynamicBoundedSemaphore(max int) *DynamicBoundedSemaphore {
	return &DynamicBoundedSemaphore{max: max}
}

// SetMax changes the capacity, waking newly-admitted waiters if it was
// raised. It never forcibly revokes permits already held when lowered.
func (s *DynamicBoundedSemaphore) SetMax(max int) {
	s.mu.Lock()
	delta := max - s.max
	s.max = max
	if delta > 0 {
		s.wakeLocked(delta)
	}
	s.mu.Unlock()
}

// Max returns the current capacity.
func (s *DynamicBoundedSemaphore) Max() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// Locked reports whether the semaphore currently has no spare capacity.
func (s *DynamicBoundedSemaphore) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max-s.cur <= 0
}

// Acquire blocks until a permit is available or ctx is done. A cancelled
// Acquire never consumes a permit: if cancellation races with being woken,
// the permit is immediately handed to the next queued waiter.
func (s *DynamicBoundedSemaphore) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.waiters.Len() == 0 && s.cur < s.max {
		s.cur++
		s.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := s.waiters.PushBack(w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		select {
		case <-w.ready:
			// Woke concurrently with cancellation; we already hold a
			// permit we don't want. Hand it back to the queue.
			s.mu.Unlock()
			s.Release()
		default:
			s.waiters.Remove(elem)
			s.mu.Unlock()
		}
		return ctx.Err()
	}
}

// Release returns one permit, waking the next queued waiter if capacity
// allows.
func (s *DynamicBoundedSemaphore) Release() {
	s.mu.Lock()
	s.cur--
	s.wakeLocked(1)
	s.mu.Unlock()
}

// wakeLocked wakes up to n waiters, provided capacity remains. Caller must
// hold s.mu.
func (s *DynamicBoundedSemaphore) wakeLocked(n int) {
	for i := 0; i < n; i++ {
		if s.waiters.Len() == 0 || s.cur >= s.max {
			return
		}
		front := s.waiters.Front()
		s.waiters.Remove(front)
		s.cur++
		close(front.Value.(*waiter).ready)
	}
}
