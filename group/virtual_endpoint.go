package group

import (
	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/endpoint"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
)

// GroupSenderProvider is the controller seam a virtual endpoint needs: a
// cluster.Sender that multicasts to a group address instead of unicasting
// to one device. Satisfied structurally by *controller.Controller.
type GroupSenderProvider interface {
	GroupSenderFor(groupID types.GroupID) cluster.Sender
}

// VirtualEndpoint builds the endpoint described in the Groups component:
// a cluster set that, once invoked, addresses every member of id in one
// transmission rather than one per device. It carries no real device
// identity (its IEEE is the zero value) since it represents the group as a
// whole, not any single endpoint on the PAN.
func VirtualEndpoint(senders GroupSenderProvider, registry *cluster.Registry, bus *events.EventBus, id types.GroupID) (*endpoint.Endpoint, error) {
	var zeroIEEE types.IEEEAddress
	return endpoint.New(zeroIEEE, types.EndpointID(0xFF), registry, senders.GroupSenderFor(id), bus)
}
