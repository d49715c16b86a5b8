package concurrency

import (
	"context"
	"fmt"
	"sync"

	"github.com/tj-smith47/zigbee-core/zcl"
)

// Result is what a Request's future resolves with: the decoded header and
// payload of the inbound frame that matched its TSN.
type Result struct {
	Header  zcl.Header
	Payload []byte
}

// future is a single-resolution result cell. The first of resolve/cancel to
// run wins; later calls are no-ops.
type future struct {
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) resolve(result Result) {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
}

func (f *future) cancel(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *future) wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Request is a scoped reservation of one TSN against a device's pending
// table: entering the scope (Reserve) inserts the entry, leaving it
// (Close) unconditionally removes it and cancels the future if it hasn't
// resolved yet.
type Request struct {
	TSN        uint8
	correlator *Correlator
	fut        *future
}

// Wait blocks until the request resolves, is cancelled, or ctx is done.
func (r *Request) Wait(ctx context.Context) (Result, error) {
	return r.fut.wait(ctx)
}

// Cancel resolves the future with ErrRequestTimedOut without removing the
// pending-table entry; a frame that still arrives late for this TSN still
// matches the entry (Resolve reports true) but delivers nothing, since the
// future it would resolve already has a result.
func (r *Request) Cancel() {
	r.fut.cancel(ErrRequestTimedOut)
}

// Close removes the pending-table entry and cancels the future if it
// hasn't already resolved or been cancelled. Safe to call multiple times.
func (r *Request) Close() {
	r.correlator.remove(r.TSN)
	r.fut.cancel(ErrRequestCancelled)
}

// Correlator is one device's TSN-indexed pending-request table.
type Correlator struct {
	mu      sync.Mutex
	pending map[uint8]*future
}

// NewCorrelator returns an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[uint8]*future)}
}

// Reserve inserts a new pending entry for tsn. Reserving an already-pending
// TSN is a fatal caller error.
func (c *Correlator) Reserve(tsn uint8) (*Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[tsn]; exists {
		return nil, fmt.Errorf("%w: tsn %d", ErrDuplicateReservation, tsn)
	}
	fut := newFuture()
	c.pending[tsn] = fut
	return &Request{TSN: tsn, correlator: c, fut: fut}, nil
}

// Resolve delivers result to the pending entry at tsn, if any. It reports
// whether a pending entry existed; a false return means the frame is an
// orphan TSN match and should be logged and dropped, not treated as a
// delivered reply.
func (c *Correlator) Resolve(tsn uint8, result Result) bool {
	c.mu.Lock()
	fut, ok := c.pending[tsn]
	c.mu.Unlock()
	if !ok {
		return false
	}
	fut.resolve(result)
	return true
}

// Pending reports whether tsn currently has a reserved entry.
func (c *Correlator) Pending(tsn uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[tsn]
	return ok
}

func (c *Correlator) remove(tsn uint8) {
	c.mu.Lock()
	delete(c.pending, tsn)
	c.mu.Unlock()
}
