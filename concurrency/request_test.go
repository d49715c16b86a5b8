package concurrency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/zcl"
)

func TestReserveDuplicateTSNIsFatal(t *testing.T) {
	c := NewCorrelator()
	req, err := c.Reserve(5)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	defer req.Close()

	if _, err := c.Reserve(5); !errors.Is(err, ErrDuplicateReservation) {
		t.Fatalf("expected ErrDuplicateReservation, got %v", err)
	}
}

func TestResolveDeliversToWaiter(t *testing.T) {
	c := NewCorrelator()
	req, err := c.Reserve(9)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	defer req.Close()

	want := Result{Header: zcl.Header{TSN: 9, CommandID: 0x01}}
	if !c.Resolve(9, want) {
		t.Fatal("Resolve should report a pending entry existed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := req.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got.Header.CommandID != 0x01 {
		t.Errorf("got.Header.CommandID = %v, want 0x01", got.Header.CommandID)
	}
}

func TestResolveOrphanTSNReportsFalse(t *testing.T) {
	c := NewCorrelator()
	if c.Resolve(42, Result{}) {
		t.Fatal("Resolve on an unreserved TSN should report false")
	}
}

func TestCloseRemovesPendingEntryAndCancelsFuture(t *testing.T) {
	c := NewCorrelator()
	req, err := c.Reserve(3)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	req.Close()
	if c.Pending(3) {
		t.Fatal("Close should remove the pending-table entry")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := req.Wait(ctx); !errors.Is(err, ErrRequestCancelled) {
		t.Fatalf("expected ErrRequestCancelled, got %v", err)
	}
}

func TestCloseAfterResolveIsNoop(t *testing.T) {
	c := NewCorrelator()
	req, _ := c.Reserve(1)
	c.Resolve(1, Result{Header: zcl.Header{TSN: 1}})

	req.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := req.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait after Close following a resolve should still see the resolved value: %v", err)
	}
	if got.Header.TSN != 1 {
		t.Errorf("got.Header.TSN = %v, want 1", got.Header.TSN)
	}
}

func TestCancelDoesNotRemovePendingEntry(t *testing.T) {
	c := NewCorrelator()
	req, _ := c.Reserve(7)
	req.Cancel()

	if !c.Pending(7) {
		t.Fatal("Cancel should not remove the pending-table entry, only Close does")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := req.Wait(ctx); !errors.Is(err, ErrRequestTimedOut) {
		t.Fatalf("expected ErrRequestTimedOut, got %v", err)
	}

	req.Close()
	if c.Pending(7) {
		t.Fatal("Close should remove the entry left by a prior Cancel")
	}
}
