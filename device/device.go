package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/endpoint"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// Status is the device's position in the NEW→ZDO_INIT→ENDPOINTS_INIT
// initialization state machine.
type Status int

const (
	StatusNew Status = iota
	StatusZDOInit
	StatusEndpointsInit
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusZDOInit:
		return "zdo_init"
	case StatusEndpointsInit:
		return "endpoints_init"
	default:
		return "unknown"
	}
}

// NodeDescriptor is the subset of the ZDO node descriptor this core tracks:
// logical type, MAC capability flags and manufacturer code, all surfaced by
// Device_annce and confirmed (or corrected) by the init state machine.
type NodeDescriptor struct {
	LogicalType        types.LogicalType
	MACCapabilities     types.MACCapabilities
	ManufacturerCode    types.ManufacturerCode
	MaxBufferSize       uint8
	MaxInTransferSize   uint16
	MaxOutTransferSize  uint16
}

const (
	basicClusterID            = types.ClusterID(0x0000)
	basicAttrManufacturerName = types.AttributeID(0x0004)
	basicAttrModelIdentifier  = types.AttributeID(0x0005)
)

// SimpleDescriptor is the per-endpoint profile/device-type/cluster-set
// triple a Simple_Desc_req resolves to.
type SimpleDescriptor struct {
	ProfileID    uint16
	DeviceType   uint16
	InClusters   []types.ClusterID
	OutClusters  []types.ClusterID
}

// Signature is everything the init state machine learned about a device
// before it commits to building endpoint objects from it: every
// discovered endpoint's simple descriptor, keyed by endpoint id. A
// SignatureRewriter sees this and may hand back a corrected copy, the
// same seam a quirks layer uses upstream to patch a device that
// misreports its own descriptors.
type Signature struct {
	Endpoints map[types.EndpointID]SimpleDescriptor
}

// ZDOClient is the narrow seam the init state machine calls through,
// mirroring cluster.Sender: device does not talk to the wire or know the
// shape of a ZDO request/response, only the two queries it needs answered.
type ZDOClient interface {
	ActiveEndpoints(ctx context.Context, nwk types.NWKAddress) ([]types.EndpointID, error)
	SimpleDescriptor(ctx context.Context, nwk types.NWKAddress, ep types.EndpointID) (SimpleDescriptor, error)
}

// Device is one entry of the controller's device table: the IEEE address
// is its permanent key, NWK is mutable across rejoins, and Endpoints is
// populated by the init state machine as it discovers them.
type Device struct {
	IEEE types.IEEEAddress

	mu       sync.RWMutex
	nwk      types.NWKAddress
	status   Status
	node     NodeDescriptor
	model    *string
	manufacturer *string
	lqi      uint8
	rssi     int8
	lastSeen time.Time

	Endpoints map[types.EndpointID]*endpoint.Endpoint

	Correlator *concurrency.Correlator

	registry *cluster.Registry
	sender   cluster.Sender
	zdo      ZDOClient
	bus      *events.EventBus
	log      zerolog.Logger
	rewriter SignatureRewriter

	initGen    uint64
	cancelInit context.CancelFunc
}

func New(ieee types.IEEEAddress, nwk types.NWKAddress, registry *cluster.Registry, sender cluster.Sender, zdo ZDOClient, bus *events.EventBus, opts ...Option) *Device {
	o := applyOptions(opts)
	return &Device{
		IEEE:       ieee,
		nwk:        nwk,
		status:     StatusNew,
		Endpoints:  make(map[types.EndpointID]*endpoint.Endpoint),
		Correlator: concurrency.NewCorrelator(),
		registry:   registry,
		sender:     sender,
		zdo:        zdo,
		bus:        bus,
		log:        logging.For("device"),
		rewriter:   o.rewriter,
	}
}

func (d *Device) NWK() types.NWKAddress {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nwk
}

// UpdateNWK is called by the controller when a rejoin changes the device's
// short address; the controller owns resolving the NWK-reuse conflict
// (another device currently holding that address) before calling this.
func (d *Device) UpdateNWK(nwk types.NWKAddress) {
	d.mu.Lock()
	d.nwk = nwk
	d.mu.Unlock()
}

func (d *Device) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// SetNodeDescriptor records the logical type, MAC capabilities and
// manufacturer code a Device_annce or Node_Desc_rsp carried.
func (d *Device) SetNodeDescriptor(n NodeDescriptor) {
	d.mu.Lock()
	d.node = n
	d.mu.Unlock()
}

func (d *Device) NodeDescriptor() NodeDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.node
}

func (d *Device) Touch(lqi uint8, rssi int8) {
	d.mu.Lock()
	d.lqi, d.rssi = lqi, rssi
	d.lastSeen = time.Now()
	d.mu.Unlock()
}

func (d *Device) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// ScheduleInitialize (re)starts the NEW→ZDO_INIT→ENDPOINTS_INIT sequence.
// It is idempotent and cancellable: a second call supersedes any
// in-flight attempt rather than running two concurrently, since a rejoin
// can arrive mid-initialization and the stale attempt's results would
// otherwise race the fresh one into the endpoint map.
func (d *Device) ScheduleInitialize(ctx context.Context) {
	d.mu.Lock()
	if d.cancelInit != nil {
		d.cancelInit()
	}
	d.initGen++
	gen := d.initGen
	runCtx, cancel := context.WithCancel(ctx)
	d.cancelInit = cancel
	d.mu.Unlock()

	go d.runInitialize(runCtx, gen)
}

func (d *Device) superseded(gen uint64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return gen != d.initGen
}

func (d *Device) runInitialize(ctx context.Context, gen uint64) {
	if err := d.initialize(ctx, gen); err != nil {
		if d.superseded(gen) {
			d.log.Debug().Uint64("generation", gen).Msg("initialization superseded, dropping stale error")
			return
		}
		d.log.Warn().Err(err).Msg("device initialization failed")
		if d.bus != nil {
			d.bus.Publish(events.NewDeviceInitFailureEvent(d.IEEE, err))
		}
		return
	}
	if d.superseded(gen) {
		d.log.Debug().Uint64("generation", gen).Msg("initialization superseded after success, discarding")
		return
	}
	d.setStatus(StatusEndpointsInit)
	if d.bus != nil {
		d.bus.Publish(events.NewDeviceInitializedEvent(d.IEEE))
	}
}

func (d *Device) initialize(ctx context.Context, gen uint64) error {
	d.setStatus(StatusZDOInit)

	epIDs, err := d.zdo.ActiveEndpoints(ctx, d.NWK())
	if err != nil {
		return fmt.Errorf("active endpoints: %w", err)
	}

	sig := &Signature{Endpoints: make(map[types.EndpointID]SimpleDescriptor, len(epIDs))}
	var unresolved []types.EndpointID
	for _, id := range epIDs {
		if d.superseded(gen) {
			return nil
		}
		desc, err := d.zdo.SimpleDescriptor(ctx, d.NWK(), id)
		if err != nil {
			d.log.Debug().Err(err).Uint8("endpoint", uint8(id)).Msg("simple descriptor fetch failed, marking inactive")
			unresolved = append(unresolved, id)
			continue
		}
		sig.Endpoints[id] = desc
	}

	if d.rewriter != nil {
		rewritten, err := d.rewriter(sig)
		if err != nil {
			d.log.Warn().Err(err).Msg("signature rewriter failed, using reported signature unmodified")
		} else if rewritten != nil {
			sig = rewritten
		}
	}

	for id, desc := range sig.Endpoints {
		if d.superseded(gen) {
			return nil
		}
		if err := d.buildEndpoint(id, desc, endpoint.StatusZDOInit); err != nil {
			d.log.Debug().Err(err).Uint8("endpoint", uint8(id)).Msg("endpoint build failed")
		}
	}
	for _, id := range unresolved {
		if err := d.buildEndpoint(id, SimpleDescriptor{}, endpoint.StatusInactive); err != nil {
			d.log.Debug().Err(err).Uint8("endpoint", uint8(id)).Msg("inactive endpoint placeholder failed")
		}
	}

	if d.superseded(gen) {
		return nil
	}
	d.resolveBasicInfo(ctx)
	return nil
}

func (d *Device) buildEndpoint(id types.EndpointID, desc SimpleDescriptor, status endpoint.Status) error {
	ep, err := endpoint.New(d.IEEE, id, d.registry, d.sender, d.bus)
	if err != nil {
		return err
	}
	ep.ProfileID = desc.ProfileID
	ep.DeviceType = desc.DeviceType
	for _, cid := range desc.InClusters {
		ep.AddInputCluster(cid, nil)
	}
	for _, cid := range desc.OutClusters {
		ep.AddOutputCluster(cid)
	}
	ep.Status = status

	d.mu.Lock()
	d.Endpoints[id] = ep
	d.mu.Unlock()
	return nil
}

// resolveBasicInfo reads manufacturer/model off the Basic cluster of the
// first endpoint found carrying one (map order, so when several endpoints
// do, which one is not fixed), trying a combined read first and falling
// back to individual reads if the device doesn't support multi-attribute
// reads cleanly. Failure here does not fail initialization: a device
// without a readable Basic cluster still reaches ENDPOINTS_INIT.
func (d *Device) resolveBasicInfo(ctx context.Context) {
	var basic *cluster.Cluster
	d.mu.RLock()
	for _, ep := range d.Endpoints {
		if c, ok := ep.Input[basicClusterID]; ok {
			basic = c
			break
		}
	}
	d.mu.RUnlock()
	if basic == nil {
		return
	}

	want := []types.AttributeID{basicAttrManufacturerName, basicAttrModelIdentifier}
	successes, _, err := basic.ReadAttributes(ctx, want, false)
	if err != nil {
		d.log.Debug().Err(err).Msg("combined basic-cluster read failed, falling back to single reads")
		for _, id := range want {
			single, _, serr := basic.ReadAttributes(ctx, []types.AttributeID{id}, false)
			if serr != nil {
				continue
			}
			d.storeBasicAttr(id, single)
		}
		return
	}
	d.storeBasicAttr(basicAttrManufacturerName, successes)
	d.storeBasicAttr(basicAttrModelIdentifier, successes)
}

func (d *Device) storeBasicAttr(id types.AttributeID, values map[types.AttributeID]zcl.AttributeValue) {
	av, ok := values[id]
	if !ok {
		return
	}
	s, ok := av.Value.(string)
	if !ok {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch id {
	case basicAttrManufacturerName:
		d.manufacturer = &s
	case basicAttrModelIdentifier:
		d.model = &s
	}
}

// Endpoint returns the endpoint at id, if the init state machine has
// discovered and stored it yet.
func (d *Device) Endpoint(id types.EndpointID) (*endpoint.Endpoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ep, ok := d.Endpoints[id]
	return ep, ok
}

func (d *Device) Model() *string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.model
}

func (d *Device) Manufacturer() *string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.manufacturer
}
