package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

const homeAutomationProfile = uint16(0x0104)

// Timeouts for a pending request's reply: a sleepy end device (RxOnWhenIdle
// clear) gets the extended window since it may be asleep when the packet
// is queued at its parent.
const (
	apsReplyTimeout         = 5 * time.Second
	apsReplyTimeoutExtended = 28 * time.Second
)

// Controller is the application controller: the only component allowed to
// mutate the device table, the sole owner of TSN allocation, and the
// chokepoint every outbound packet passes through on its way to the radio.
type Controller struct {
	radio    transport.Radio
	registry *cluster.Registry
	bus      *events.EventBus
	opts     *options
	log      zerolog.Logger

	gate *concurrency.DynamicBoundedSemaphore

	tsnMu sync.Mutex
	tsn   uint8

	mu          sync.RWMutex
	byIEEE      map[types.IEEEAddress]*device.Device
	byNWK       map[types.NWKAddress]*device.Device
	started     bool
	coordinator types.NodeInfo
	network     types.NetworkInfo
	zdoHandler      ZDOHandler
	zdoClient       device.ZDOClient
	clusterHandlers map[types.ClusterID]ClusterHandler
}

// New wires a Controller to a radio driver, a shared cluster registry, and
// an event bus every device's clusters and endpoints will publish to.
func New(radio transport.Radio, registry *cluster.Registry, bus *events.EventBus, opts ...Option) *Controller {
	o := applyOptions(opts)
	c := &Controller{
		radio:    radio,
		registry: registry,
		bus:      bus,
		opts:     o,
		log:      logging.For("controller"),
		gate:     concurrency.NewDynamicBoundedSemaphore(o.maxConcurrentRequests),
		byIEEE:   make(map[types.IEEEAddress]*device.Device),
		byNWK:    make(map[types.NWKAddress]*device.Device),
	}
	radio.OnPacket(c.packetReceived)
	return c
}

// nextTSN hands out the single monotonically-wrapping u8 TSN counter this
// controller shares across every device it owns.
func (c *Controller) nextTSN() uint8 {
	c.tsnMu.Lock()
	defer c.tsnMu.Unlock()
	c.tsn++
	return c.tsn
}

// Startup connects the radio and brings up a network: if one is already
// persisted, it's loaded; otherwise, when auto_form is enabled, one is
// formed and the load retried. With auto_form disabled the radio's error
// (ErrNetworkNotFormed) is returned wrapped, so errors.Is still matches it.
func (c *Controller) Startup(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.mu.Unlock()

	if err := c.radio.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	loadedNode, loadedNetwork, err := c.radio.LoadNetworkInfo(ctx, true)
	if err != nil {
		if !c.opts.autoForm {
			return fmt.Errorf("load network info: %w", err)
		}
		c.log.Info().Msg("network not formed, forming one")
		if ferr := c.radio.FormNetwork(ctx, node, network); ferr != nil {
			return fmt.Errorf("form network: %w", ferr)
		}
		loadedNode, loadedNetwork, err = c.radio.LoadNetworkInfo(ctx, true)
		if err != nil {
			return fmt.Errorf("load network info after form: %w", err)
		}
	}

	c.mu.Lock()
	c.coordinator = loadedNode
	c.network = loadedNetwork
	c.started = true
	c.mu.Unlock()
	return nil
}

// Shutdown disconnects the radio. It does not clear the device table: a
// process restart reloads devices from persistence, not from a live
// handshake.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.radio.Disconnect(ctx)
}

// CoordinatorInfo returns the node/network info Startup resolved.
func (c *Controller) CoordinatorInfo() (types.NodeInfo, types.NetworkInfo) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coordinator, c.network
}

// DeviceByIEEE looks up a device table entry by its permanent key.
func (c *Controller) DeviceByIEEE(ieee types.IEEEAddress) (*device.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byIEEE[ieee]
	return d, ok
}

// DeviceByNWK looks up a device table entry by its current short address.
func (c *Controller) DeviceByNWK(nwk types.NWKAddress) (*device.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byNWK[nwk]
	return d, ok
}

// Devices returns a snapshot of every device currently in the table.
func (c *Controller) Devices() []*device.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*device.Device, 0, len(c.byIEEE))
	for _, d := range c.byIEEE {
		out = append(out, d)
	}
	return out
}

// RemoveDevice evicts ieee from both indices, publishing device_removed.
func (c *Controller) RemoveDevice(ieee types.IEEEAddress) {
	c.mu.Lock()
	d, ok := c.byIEEE[ieee]
	if ok {
		delete(c.byIEEE, ieee)
		delete(c.byNWK, d.NWK())
	}
	c.mu.Unlock()
	if ok && c.bus != nil {
		c.bus.Publish(events.NewDeviceRemovedEvent(ieee))
	}
}

// zdoMgmtPermitJoiningReq is the Mgmt_Permit_Joining_req command/cluster
// id; the full command registry lives in the zdo package, but a unicast
// permit-join is simple enough to issue directly here rather than route
// back through it.
const zdoMgmtPermitJoiningReq = types.ClusterID(0x0036)

// PermitJoin opens (or closes, with d == 0) the network to joins. With
// target nil the request broadcasts via the radio's own permit-join
// control call; otherwise it is unicast to target alone so only its
// sub-tree opens (the supplemented broadcast-vs-targeted split).
func (c *Controller) PermitJoin(ctx context.Context, d time.Duration, target *device.Device) error {
	if target == nil {
		if err := c.radio.PermitNCP(ctx, d); err != nil {
			return err
		}
		if c.bus != nil {
			c.bus.Publish(events.NewPermitJoinChangedEvent(d))
		}
		return nil
	}

	seconds := uint8(d / time.Second)
	frame := []byte{c.nextTSN(), seconds, 0x00}
	if err := c.sendZDORaw(ctx, target.NWK(), zdoMgmtPermitJoiningReq, frame); err != nil {
		return err
	}
	if c.bus != nil {
		c.bus.Publish(events.NewPermitJoinChangedEvent(d))
	}
	return nil
}

// Broadcast sends header+payload to every device reachable at nwk's
// broadcast address (0xFFFF all devices, 0xFFFD all non-sleepy, 0xFFFC all
// routers). Broadcasts never await a reply: there is no single device's
// correlator to resolve against.
func (c *Controller) Broadcast(ctx context.Context, nwk types.NWKAddress, clusterID types.ClusterID, header zcl.Header, payload []byte) error {
	frame := append(zcl.SerializeHeader(header), payload...)
	pkt := transport.ZigbeePacket{
		Dst:       types.BroadcastAddr(nwk),
		SrcEP:     types.EndpointID(c.opts.coordinatorEndpoint),
		TSN:       header.TSN,
		ProfileID: homeAutomationProfile,
		ClusterID: clusterID,
		Data:      frame,
	}
	if err := c.gate.Acquire(ctx); err != nil {
		return err
	}
	defer c.gate.Release()
	_, err := c.radio.SendPacket(ctx, pkt)
	return err
}
