package testutil

import (
	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/endpoint"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// OnOffClusterID is the cluster id the OnOffRegistry fixture registers.
const OnOffClusterID = types.ClusterID(0x0006)

// OnOffRegistry builds a registry with a minimal On/Off cluster definition
// (on_off attribute, off/on/toggle commands) for tests that need a real
// cluster instance without pulling in a full profile's cluster set.
func OnOffRegistry() *cluster.Registry {
	r := cluster.NewRegistry()
	r.Register(cluster.NewDefinition(OnOffClusterID, "OnOff",
		[]cluster.AttributeSchema{{ID: 0x0000, Name: "on_off", Type: zcl.TypeBool}},
		[]cluster.CommandSchema{
			{ID: 0x00, Name: "off"},
			{ID: 0x01, Name: "on"},
			{ID: 0x02, Name: "toggle"},
		},
		nil,
	))
	return r
}

// NewTestDevice builds a device.Device with one endpoint per id in eps,
// each carrying an input instance of every cluster id in clusterIDs from
// registry. sender and bus may be nil for tests that never issue a command
// or care about emitted events.
func NewTestDevice(ieee types.IEEEAddress, nwk types.NWKAddress, registry *cluster.Registry, sender cluster.Sender, bus *events.EventBus, eps []types.EndpointID, clusterIDs []types.ClusterID) (*device.Device, error) {
	dev := device.New(ieee, nwk, registry, sender, nil, bus)
	for _, epID := range eps {
		ep, err := endpoint.New(ieee, epID, registry, sender, bus)
		if err != nil {
			return nil, err
		}
		for _, clusterID := range clusterIDs {
			ep.AddInputCluster(clusterID, nil)
		}
		dev.Endpoints[epID] = ep
	}
	return dev, nil
}

// IEEEFromByte builds a test IEEE address with its low byte set to b and
// every other byte zero, giving each test device a distinct, readable
// address without spelling out all eight bytes.
func IEEEFromByte(b byte) types.IEEEAddress {
	var addr types.IEEEAddress
	addr[7] = b
	return addr
}
