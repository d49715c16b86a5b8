// Package concurrency provides the two cross-cutting primitives every
// outbound send and every in-flight request depends on: a dynamic bounded
// semaphore gating concurrent sends, and a Correlator/Request pair that
// reserves a transaction sequence number and exposes its eventual reply as
// a future.
package concurrency

import "errors"

// ErrDuplicateReservation is returned when Reserve is called for a TSN that
// already has a pending entry — a fatal caller error.
var ErrDuplicateReservation = errors.New("concurrency: duplicate TSN reservation")

// ErrRequestCancelled is the error a Request's result future resolves with
// when its scope exits before a reply arrives.
var ErrRequestCancelled = errors.New("concurrency: request cancelled")

// ErrRequestTimedOut is the error a Request's result future resolves with
// when it is cancelled externally (e.g. by a caller-side timeout) without
// the scope itself exiting.
var ErrRequestTimedOut = errors.New("concurrency: request timed out")
