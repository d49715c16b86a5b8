// Package zdo implements the Zigbee Device Object command set that lives
// on endpoint 0: address and descriptor lookups, bind/unbind, leave,
// permit-join, and LQI/routing table queries.
//
// A ZDO frame has no ZCL frame-control byte and no embedded command id: the
// single leading byte is a TSN, and the command identity is carried
// entirely by the packet's cluster id. Client is the one place that
// framing is built and torn down; everything above it deals in Go structs.
package zdo
