package topology

import (
	"context"

	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zdo"
)

// ZDOClient is the narrow seam Scanner issues its table-page and
// discovery requests through (satisfied structurally by *zdo.Client).
type ZDOClient interface {
	MgmtLqi(ctx context.Context, nwk types.NWKAddress, startIndex uint8) (zdo.MgmtLqiRspBody, error)
	MgmtRtg(ctx context.Context, nwk types.NWKAddress, startIndex uint8) (zdo.MgmtRtgRspBody, error)
	ResolveIEEE(ctx context.Context, nwk types.NWKAddress) (types.IEEEAddress, error)
}

// DeviceProvider is the device-table view Scanner polls and consults
// before triggering unknown-address discovery (satisfied structurally by
// *controller.Controller).
type DeviceProvider interface {
	Devices() []*device.Device
	DeviceByNWK(nwk types.NWKAddress) (*device.Device, bool)
}

// JoinHandler admits a device discovered via a table page's unknown NWK
// address (satisfied structurally by *controller.Controller.HandleJoin).
type JoinHandler interface {
	HandleJoin(ctx context.Context, nwk types.NWKAddress, ieee types.IEEEAddress, parentNWK types.NWKAddress)
}
