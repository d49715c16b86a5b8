// Package group implements multicast group membership: a named set of
// endpoints addressed by a single 16-bit group id, and a virtual endpoint
// whose outbound commands reach every member in one transmission instead
// of one unicast per device.
//
// Manager owns the bidirectional membership invariant between a Group and
// the member endpoints' own Groups sets (endpoint.Endpoint.JoinGroup/
// LeaveGroup hold the other half): AddMember creates the group if it
// doesn't exist yet, and RemoveGroup detaches every member before the
// group itself is dropped.
//
//	groups := group.NewManager(ctrl, bus)
//	groups.AddMember(0x0001, lightIEEE, 1)
//	groups.AddMember(0x0001, switchIEEE, 1)
//
//	virtual, _ := group.VirtualEndpoint(ctrl, registry, bus, 0x0001)
//	onoff := virtual.AddInputCluster(onOffClusterID, nil)
//	onoff.InvokeCommand(ctx, onOffCommandOn, nil, false) // reaches both members
package group
