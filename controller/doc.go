// Package controller implements the application controller: the single
// object that owns the device table, the radio connection, the outbound
// concurrency gate, and TSN allocation.
//
// It is the one place in this core that is allowed to hold a lock across
// both an IEEE-keyed and a NWK-keyed view of the same device set, since
// rejoin handling requires atomically reconciling the two. Every other
// package reaches the radio only through a Controller-constructed sender
// adapter scoped to one device.
package controller
