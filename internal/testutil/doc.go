// Package testutil provides testing utilities shared across this core's
// test suites.
//
// This package is internal and not intended for use outside the module's
// own tests. It provides a mock radio, fixtures for raw ZCL wire payloads,
// and generic assertion helpers.
//
// # Mock Radio
//
// MockRadio implements transport.Radio and records every outbound packet,
// letting a test script a response or inject an unsolicited inbound frame:
//
//	radio := testutil.NewMockRadio()
//	radio.OnSend(0x0006, func(pkt transport.ZigbeePacket) (transport.Result, error) {
//	    return transport.Result{Delivered: true}, nil
//	})
//
//	ctrl := controller.New(radio, registry, bus)
//
// # ZCL Fixtures
//
// The fixtures/ directory holds raw wire bytes captured for specific ZCL
// frames, for codec tests that want a realistic payload rather than a
// hand-built one:
//
//	payload := testutil.MustLoadFixture("zcl/read_attributes_response_onoff.bin")
//
// # Helper Functions
//
// Generic assertion helpers simplify common test patterns:
//
//	testutil.AssertEqual(t, expected, actual)
//	testutil.AssertNoError(t, err)
package testutil
