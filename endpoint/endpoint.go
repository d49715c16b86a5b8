package endpoint

import (
	"fmt"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// Status is the endpoint's position in the per-endpoint half of the device
// init state machine: a failed Simple_Desc_req marks the endpoint
// inactive without aborting the owning device.
type Status int

const (
	StatusNew Status = iota
	StatusZDOInit
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusZDOInit:
		return "zdo_init"
	case StatusInactive:
		return "endpoint_inactive"
	default:
		return "unknown"
	}
}

// Endpoint owns one device's cluster set for one endpoint id: the clusters
// the remote device hosts as a server (Input, keyed by cluster id — reports
// and command replies from the device arrive here), the clusters it hosts
// as a client (Output — inbound commands the device itself issues, e.g. a
// switch's generated On/Off), its group memberships, and any per-endpoint
// model/manufacturer override discovered from its own Basic cluster
// instance.
type Endpoint struct {
	IEEE       types.IEEEAddress
	ID         types.EndpointID
	ProfileID  uint16
	DeviceType uint16
	Status     Status

	Input  map[types.ClusterID]*cluster.Cluster
	Output map[types.ClusterID]*cluster.Cluster

	Groups map[types.GroupID]struct{}

	Model        *string
	Manufacturer *string

	registry *cluster.Registry
	sender   cluster.Sender
	bus      *events.EventBus
}

// New builds an endpoint with empty cluster maps. id == types.EndpointZDO is
// rejected: ZDO is handled by its own package, not this one.
func New(ieee types.IEEEAddress, id types.EndpointID, registry *cluster.Registry, sender cluster.Sender, bus *events.EventBus) (*Endpoint, error) {
	if id == types.EndpointZDO {
		return nil, ErrZDOEndpoint
	}
	return &Endpoint{
		IEEE:     ieee,
		ID:       id,
		Status:   StatusNew,
		Input:    make(map[types.ClusterID]*cluster.Cluster),
		Output:   make(map[types.ClusterID]*cluster.Cluster),
		Groups:   make(map[types.GroupID]struct{}),
		registry: registry,
		sender:   sender,
		bus:      bus,
	}, nil
}

// AddInputCluster registers a server-role cluster instance (the remote
// device hosts cluster id as server; we read/write/configure it and
// receive its reports).
func (e *Endpoint) AddInputCluster(id types.ClusterID, constants map[types.AttributeID]zcl.AttributeValue) *cluster.Cluster {
	def := e.registry.Lookup(id)
	c := cluster.New(e.IEEE, e.ID, def, types.ClusterRoleServer, e.sender, e.bus, constants)
	e.Input[id] = c
	return c
}

// AddOutputCluster registers a client-role cluster instance (the remote
// device hosts cluster id as client; it issues commands against our
// registry schema for that id, such as a switch generating On/Off).
func (e *Endpoint) AddOutputCluster(id types.ClusterID) *cluster.Cluster {
	def := e.registry.Lookup(id)
	c := cluster.New(e.IEEE, e.ID, def, types.ClusterRoleClient, e.sender, e.bus, nil)
	e.Output[id] = c
	return c
}

// JoinGroup and LeaveGroup maintain this endpoint's half of the
// bidirectional group membership invariant; the group package's Manager
// is responsible for the other half.
func (e *Endpoint) JoinGroup(g types.GroupID)  { e.Groups[g] = struct{}{} }
func (e *Endpoint) LeaveGroup(g types.GroupID) { delete(e.Groups, g) }

func (e *Endpoint) InGroup(g types.GroupID) bool {
	_, ok := e.Groups[g]
	return ok
}

// DispatchResult is what an inbound frame resolves to: the decoded header,
// the cluster instance it targeted (nil if the cluster id is not
// registered on this endpoint), and a default response the caller should
// send back, if the endpoint layer already decided one is owed.
type DispatchResult struct {
	Header          zcl.Header
	Payload         []byte
	Cluster         *cluster.Cluster
	DefaultResponse *zcl.DefaultResponse
}

// Dispatch is the ZCL deserialize entry point: parse the frame
// header, select the cluster instance by cluster id and frame direction
// (server-to-client frames — reports, replies — target Input; client-to-
// server frames target Output), and, for unsolicited report-attributes
// commands, process them immediately rather than leaving them for the
// caller's TSN correlator to sort out.
func (e *Endpoint) Dispatch(clusterID types.ClusterID, frame []byte) (DispatchResult, error) {
	header, payload, err := zcl.DeserializeHeader(frame)
	if err != nil {
		return DispatchResult{}, fmt.Errorf("endpoint %d: %w", e.ID, err)
	}

	c := e.clusterFor(clusterID, header.Direction)
	if c == nil {
		unknown := cluster.New(e.IEEE, e.ID, e.registry.Lookup(clusterID), types.ClusterRoleServer, e.sender, e.bus, nil)
		return DispatchResult{Header: header, Payload: payload, DefaultResponse: unknown.HandleUnknown(header)}, nil
	}

	if header.FrameType == zcl.FrameTypeGeneral && header.CommandID == zcl.CommandReportAttributes {
		resp, err := c.HandleReportAttributes(header, payload)
		if err != nil {
			return DispatchResult{}, fmt.Errorf("endpoint %d cluster %#x: %w", e.ID, uint16(clusterID), err)
		}
		return DispatchResult{Header: header, Payload: payload, Cluster: c, DefaultResponse: resp}, nil
	}

	return DispatchResult{Header: header, Payload: payload, Cluster: c}, nil
}

func (e *Endpoint) clusterFor(id types.ClusterID, dir zcl.Direction) *cluster.Cluster {
	if dir == zcl.DirectionServerToClient {
		return e.Input[id]
	}
	return e.Output[id]
}
