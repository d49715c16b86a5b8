// Package transport implements the radio driver boundary: the Radio
// interface the application controller drives, and two concrete
// implementations.
//
// # Supported radios
//
//   - Serial: a locally attached NCP over a UART (go.bug.st/serial),
//     typical of an EZSP/ASH-style coordinator.
//   - Socket: a network-attached radio host reached over a WebSocket
//     (gorilla/websocket), for a companion process bridging a remote NCP.
//
// Both frame control-plane requests (form_network, load_network_info, ...)
// and inbound packets on the same connection, correlating requests by an
// internal request id independent of the ZCL TSN the application layer
// allocates.
//
// # Usage
//
//	radio := transport.NewSerial("/dev/ttyUSB0", transport.WithBaudRate(115200))
//	if err := radio.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	radio.OnPacket(func(pkt transport.ZigbeePacket) {
//	    // hand off to the application controller's ingress path
//	})
package transport
