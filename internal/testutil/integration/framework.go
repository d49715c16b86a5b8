// Package integration provides integration test utilities for testing
// against a real coordinator radio attached over serial.
//
// Integration tests are skipped by default when the required environment
// variable is not set. This allows the test suite to run in CI
// environments without real hardware attached.
//
// # Environment Variables
//
//   - ZIGBEE_TEST_SERIAL_PORT: path to the serial port the coordinator NCP
//     is attached to (e.g. /dev/ttyUSB0)
//   - ZIGBEE_INTEGRATION_TESTS: set to "1" to enable integration tests
//
// # Usage
//
//	func TestFormNetwork(t *testing.T) {
//	    app := integration.RequireApp(t)
//	    // Exercise app against the real radio...
//	}
package integration

import (
	"os"
	"testing"

	zigbeecore "github.com/tj-smith47/zigbee-core"
	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/transport"
)

// Enabled reports whether integration tests should run at all.
func Enabled() bool {
	return os.Getenv("ZIGBEE_INTEGRATION_TESTS") == "1"
}

// SerialPort returns the configured serial port, or "" if none is set.
func SerialPort() string {
	return os.Getenv("ZIGBEE_TEST_SERIAL_PORT")
}

// RequireApp skips the test unless integration tests are enabled and a
// serial port is configured, then returns an App wired to that port's
// radio with an empty cluster registry and a fresh event bus.
func RequireApp(t *testing.T) *zigbeecore.App {
	t.Helper()
	if !Enabled() {
		t.Skip("set ZIGBEE_INTEGRATION_TESTS=1 to run integration tests")
	}
	port := SerialPort()
	if port == "" {
		t.Skip("set ZIGBEE_TEST_SERIAL_PORT to the coordinator's serial port")
	}

	radio := transport.NewSerial(port)
	registry := cluster.NewRegistry()
	bus := events.NewEventBus()
	return zigbeecore.New(radio, registry, bus)
}
