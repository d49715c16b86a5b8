package transport

import (
	"context"
	"testing"
	"time"
)

func TestNewSocketDefaultState(t *testing.T) {
	s := NewSocket("ws://127.0.0.1:9999/radio")
	if s.State() != StateDisconnected {
		t.Errorf("State() = %v, want StateDisconnected", s.State())
	}
}

func TestSocketOnPacketRegistersHandler(t *testing.T) {
	s := NewSocket("ws://127.0.0.1:9999/radio")
	called := false
	s.OnPacket(func(pkt ZigbeePacket) { called = true })

	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()
	if h == nil {
		t.Fatal("expected handler to be registered")
	}
	h(ZigbeePacket{})
	if !called {
		t.Error("expected registered handler to be invoked")
	}
}

func TestSocketCallAgainstClosedSocketFails(t *testing.T) {
	s := NewSocket("ws://127.0.0.1:1/radio")
	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.call(ctx, "form_network", nil); err == nil {
		t.Fatal("expected call against a closed socket to fail")
	}
}
