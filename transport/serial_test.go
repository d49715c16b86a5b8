package transport

import (
	"context"
	"testing"
	"time"
)

func TestNewSerialDefaultsBaudRate(t *testing.T) {
	s := NewSerial("/dev/ttyUSB0")
	if s.opts.baudRate != 115200 {
		t.Errorf("baudRate = %d, want 115200", s.opts.baudRate)
	}
}

func TestSerialWithBaudRateOverride(t *testing.T) {
	s := NewSerial("/dev/ttyUSB0", WithBaudRate(57600))
	if s.opts.baudRate != 57600 {
		t.Errorf("baudRate = %d, want 57600", s.opts.baudRate)
	}
}

func TestSerialCallAgainstClosedPortFails(t *testing.T) {
	s := NewSerial("/dev/ttyUSB0")
	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.call(ctx, "form_network", nil); err == nil {
		t.Fatal("expected call against a closed serial port to fail")
	}
}
