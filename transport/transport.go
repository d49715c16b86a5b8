// Package transport implements the radio driver boundary: the opaque
// collaborator the application controller drives to move ZigbeePacket
// frames on and off the PAN. The core never runs the Zigbee MAC/NWK layer
// itself; it delegates to whatever concrete Radio is wired in (a serial NCP
// or a network socket to a remote radio host) and only depends on the
// interface in this file.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/tj-smith47/zigbee-core/types"
)

// Sentinel errors surfaced by Radio implementations and interpreted by the
// controller's startup path.
var (
	// ErrNetworkNotFormed is returned by LoadNetworkInfo when the radio has
	// no network state persisted at all.
	ErrNetworkNotFormed = errors.New("transport: network not formed")
	// ErrNetworkSettingsInconsistent is returned by LoadNetworkInfo when the
	// radio's persisted network info fails its own internal consistency
	// check (e.g. node info and network info disagree on NWK address).
	ErrNetworkSettingsInconsistent = errors.New("transport: network settings inconsistent")
	// ErrNotConnected is returned to a request still awaiting its reply
	// when the connection drops. It is not returned for an operation
	// attempted before Connect or after Disconnect.
	ErrNotConnected = errors.New("transport: not connected")
)

// TxPriority orders outbound packets at the radio's MAC queue, independent
// of the FIFO ordering the concurrency gate already imposes per sender.
type TxPriority uint8

const (
	TxPriorityNormal TxPriority = iota
	TxPriorityHigh
	TxPriorityCritical
)

// ZigbeePacket is the wire-level unit exchanged with the radio: the
// serialized APS payload plus its addressing and delivery metadata. Data
// is opaque to this package; the endpoint and cluster packages own
// deserializing it.
type ZigbeePacket struct {
	Src              types.AddrModeAddress
	SrcEP            types.EndpointID
	Dst              types.AddrModeAddress
	DstEP            *types.EndpointID
	TSN              uint8
	ProfileID        uint16
	ClusterID        types.ClusterID
	Data             []byte
	LQI              uint8
	RSSI             int8
	SourceRoute      []types.NWKAddress
	ExtendedTimeout  bool
	TXOptions        uint8
	Radius           uint8
	NonMemberRadius  uint8
	Priority         TxPriority
}

// Result is what a radio reports back for one send_packet call: whether
// the MAC layer accepted delivery, independent of any APS-level reply.
type Result struct {
	Delivered bool
	Status    uint8
}

// PacketHandler receives every inbound packet the radio decodes, in
// arrival order.
type PacketHandler func(ZigbeePacket)

// Radio is the driver interface this core consumes. Implementations are
// not required to be safe for concurrent use by more than the controller's
// single ingress/egress task.
type Radio interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// FormNetwork instructs the radio to create a new PAN using the given
	// node/network info as a starting point (channel, PAN id, etc. may be
	// assigned by the radio if left zero-valued).
	FormNetwork(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error

	// LoadNetworkInfo populates the radio's view of the current network
	// and node info from its persisted state. loadDevices additionally
	// asks the radio to report its child/neighbor table.
	LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error)

	WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error

	SendPacket(ctx context.Context, pkt ZigbeePacket) (Result, error)

	PermitNCP(ctx context.Context, duration time.Duration) error

	// BuildSourceRouteTo returns the relay list the radio would use to
	// reach ieee, or nil if the radio has no source-routing state for it.
	BuildSourceRouteTo(ctx context.Context, ieee types.IEEEAddress) ([]types.NWKAddress, error)

	// OnPacket registers the ingress callback. Called once at setup.
	OnPacket(handler PacketHandler)
}
