package zdo

import (
	"context"

	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/types"
)

// Sender is the narrow seam Client issues requests through, mirroring
// cluster.Sender: Client never imports controller, only this interface
// (satisfied structurally by *controller.ZDOSenderAdapter).
type Sender interface {
	NextTSN() uint8
	SendRaw(ctx context.Context, nwk types.NWKAddress, clusterID types.ClusterID, frame []byte) error
}

// DeviceProvider resolves a NWK address to its device-table entry
// (satisfied structurally by *controller.Controller, whose DeviceByNWK
// already has this signature).
type DeviceProvider interface {
	DeviceByNWK(nwk types.NWKAddress) (*device.Device, bool)
}

// CoordinatorProvider answers the coordinator's own identity, for the
// server-role responses Server gives when a remote queries the
// coordinator about itself (satisfied structurally by
// *controller.Controller.CoordinatorInfo).
type CoordinatorProvider interface {
	CoordinatorInfo() (types.NodeInfo, types.NetworkInfo)
}

// JoinHandler admits a newly announced device (satisfied structurally by
// *controller.Controller.HandleJoin).
type JoinHandler interface {
	HandleJoin(ctx context.Context, nwk types.NWKAddress, ieee types.IEEEAddress, parentNWK types.NWKAddress)
}
