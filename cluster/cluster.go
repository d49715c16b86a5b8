package cluster

import (
	"context"
	"fmt"

	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/wire"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// Sender is the outbound half of a cluster's relationship with its owning
// device: allocate a TSN, send a frame, and optionally wait for either a
// matching reply or a non-SUCCESS default response. Implemented by the
// device/request-correlation layer; a cluster never talks to the radio
// directly.
type Sender interface {
	NextTSN() uint8
	Send(ctx context.Context, ep types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, awaitReply bool) (zcl.Header, []byte, error)
}

// Cluster is one runtime instance of a cluster definition bound to a
// specific endpoint and role. It owns the attribute cache, the constant-
// attribute overlay, and dispatches inbound frames against its Definition.
type Cluster struct {
	ClusterID types.ClusterID
	Role      types.ClusterRole
	def       *Definition

	ieee     types.IEEEAddress
	endpoint types.EndpointID

	// ManufacturerCode is non-nil when reads/writes/commands on this
	// cluster instance must be tagged manufacturer-specific, either
	// because the owning device's node descriptor carries one or an
	// explicit per-cluster override was set.
	ManufacturerCode *types.ManufacturerCode

	cache     map[types.AttributeID]zcl.AttributeValue
	constants map[types.AttributeID]zcl.AttributeValue

	sender Sender
	bus    *events.EventBus
}

// New builds a runtime cluster instance. constants may be nil; its entries
// are never written and always read as SUCCESS, shadowing the cache.
func New(ieee types.IEEEAddress, ep types.EndpointID, def *Definition, role types.ClusterRole, sender Sender, bus *events.EventBus, constants map[types.AttributeID]zcl.AttributeValue) *Cluster {
	if constants == nil {
		constants = map[types.AttributeID]zcl.AttributeValue{}
	}
	return &Cluster{
		ClusterID: def.ClusterID,
		Role:      role,
		def:       def,
		ieee:      ieee,
		endpoint:  ep,
		cache:     make(map[types.AttributeID]zcl.AttributeValue),
		constants: constants,
		sender:    sender,
		bus:       bus,
	}
}

func (c *Cluster) manufacturerSpecific() (uint16, bool) {
	if c.ManufacturerCode != nil {
		return uint16(*c.ManufacturerCode), true
	}
	return 0, false
}

// Cached returns the last known value for id without touching the wire.
func (c *Cluster) Cached(id types.AttributeID) (zcl.AttributeValue, bool) {
	if v, ok := c.constants[id]; ok {
		return v, true
	}
	v, ok := c.cache[id]
	return v, ok
}

// ReadAttributes implements the read-attributes contract: constant
// overlay hits are synthesized as SUCCESS, cache hits are served locally
// when allowCache is set, and everything else goes out on the wire in a
// single request.
func (c *Cluster) ReadAttributes(ctx context.Context, ids []types.AttributeID, allowCache bool) (map[types.AttributeID]zcl.AttributeValue, map[types.AttributeID]types.Status, error) {
	successes := make(map[types.AttributeID]zcl.AttributeValue)
	failures := make(map[types.AttributeID]types.Status)

	var wireIDs []types.AttributeID
	for _, id := range ids {
		if v, ok := c.constants[id]; ok {
			successes[id] = v
			continue
		}
		if allowCache {
			if v, ok := c.cache[id]; ok {
				successes[id] = v
				continue
			}
		}
		wireIDs = append(wireIDs, id)
	}
	if len(wireIDs) == 0 {
		return successes, failures, nil
	}

	payload := make([]byte, 0, len(wireIDs)*2)
	for _, id := range wireIDs {
		payload = append(payload, wire.SerializeUint16(uint16(id))...)
	}

	mc, mfg := c.manufacturerSpecific()
	header := zcl.Header{
		FrameType:            zcl.FrameTypeGeneral,
		ManufacturerSpecific: mfg,
		ManufacturerCode:     mc,
		Direction:            zcl.DirectionClientToServer,
		TSN:                  c.sender.NextTSN(),
		CommandID:            zcl.CommandReadAttributes,
	}

	respHeader, respPayload, err := c.sender.Send(ctx, c.endpoint, c.ClusterID, header, payload, true)
	if err != nil {
		return nil, nil, fmt.Errorf("read attributes: %w", err)
	}

	// A default response (status-only, no records) marks every requested
	// attribute unresolved with that status.
	unresolved := types.NewStatus(types.StatusFailure)
	if respHeader.FrameType == zcl.FrameTypeGeneral && respHeader.CommandID == zcl.CommandDefaultResponse {
		dr, _, derr := zcl.DeserializeDefaultResponse(respPayload)
		if derr != nil {
			return nil, nil, fmt.Errorf("read attributes response: %w", derr)
		}
		unresolved = dr.Status
		respPayload = nil
	}

	rest := respPayload
	seen := make(map[types.AttributeID]bool, len(wireIDs))
	for len(rest) > 0 {
		var rec zcl.ReadAttributeRecord
		rec, rest, err = zcl.DeserializeReadAttributeRecord(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("read attributes response: %w", err)
		}
		seen[rec.AttributeID] = true
		if rec.Status.IsSuccess() {
			c.cache[rec.AttributeID] = rec.Value
			successes[rec.AttributeID] = rec.Value
			c.emitAttributeUpdated(rec.AttributeID, rec.Value)
		} else {
			failures[rec.AttributeID] = rec.Status
		}
	}
	// Requested attributes with no record in the reply get the default
	// response's status, or FAILURE when records were returned without them.
	for _, id := range wireIDs {
		if !seen[id] {
			if _, ok := successes[id]; !ok {
				failures[id] = unresolved
			}
		}
	}
	return successes, failures, nil
}

// WriteAttributes writes through to the cache on success; a failing write
// preserves the prior cache entry.
func (c *Cluster) WriteAttributes(ctx context.Context, attrs []zcl.Attribute) (map[types.AttributeID]types.Status, error) {
	var payload []byte
	for _, a := range attrs {
		payload = append(payload, zcl.SerializeAttribute(a)...)
	}

	mc, mfg := c.manufacturerSpecific()
	header := zcl.Header{
		FrameType:            zcl.FrameTypeGeneral,
		ManufacturerSpecific: mfg,
		ManufacturerCode:     mc,
		Direction:            zcl.DirectionClientToServer,
		TSN:                  c.sender.NextTSN(),
		CommandID:            zcl.CommandWriteAttributes,
	}

	_, respPayload, err := c.sender.Send(ctx, c.endpoint, c.ClusterID, header, payload, true)
	if err != nil {
		return nil, fmt.Errorf("write attributes: %w", err)
	}

	failures := make(map[types.AttributeID]types.Status)
	rest := respPayload
	for len(rest) > 0 {
		var rec zcl.WriteAttributesStatusRecord
		rec, rest, err = zcl.DeserializeWriteAttributesStatusRecord(rest)
		if err != nil {
			return nil, fmt.Errorf("write attributes response: %w", err)
		}
		failures[rec.AttributeID] = rec.Status
	}
	for _, a := range attrs {
		if _, failed := failures[a.AttributeID]; !failed {
			c.cache[a.AttributeID] = a.Value
			c.emitAttributeUpdated(a.AttributeID, a.Value)
		}
	}
	return failures, nil
}

// ConfigureReporting rejects unknown attribute names before touching the
// wire: an unknown attribute name is a caller error.
func (c *Cluster) ConfigureReporting(ctx context.Context, configs []zcl.ReportingConfig) (map[types.AttributeID]types.Status, error) {
	for _, cfg := range configs {
		if _, err := c.def.ResolveAttribute(cfg.AttributeID); err != nil {
			return nil, err
		}
	}

	var payload []byte
	for _, cfg := range configs {
		payload = append(payload, zcl.SerializeReportingConfig(cfg)...)
	}

	mc, mfg := c.manufacturerSpecific()
	header := zcl.Header{
		FrameType:            zcl.FrameTypeGeneral,
		ManufacturerSpecific: mfg,
		ManufacturerCode:     mc,
		Direction:            zcl.DirectionClientToServer,
		TSN:                  c.sender.NextTSN(),
		CommandID:            zcl.CommandConfigureReporting,
	}

	_, respPayload, err := c.sender.Send(ctx, c.endpoint, c.ClusterID, header, payload, true)
	if err != nil {
		return nil, fmt.Errorf("configure reporting: %w", err)
	}

	results := make(map[types.AttributeID]types.Status)
	rest := respPayload
	for len(rest) > 0 {
		var rec zcl.ConfigureReportingResponseRecord
		rec, rest, err = zcl.DeserializeConfigureReportingResponseRecord(rest)
		if err != nil {
			return nil, fmt.Errorf("configure reporting response: %w", err)
		}
		results[rec.AttributeID] = rec.Status
	}
	return results, nil
}

// InvokeCommand sends a cluster-specific command and optionally awaits its
// reply. Per-cluster helpers (e.g. an OnOff cluster's On()) are thin
// wrappers over this that know their command id and argument encoding.
func (c *Cluster) InvokeCommand(ctx context.Context, commandID uint8, args []byte, awaitReply bool) (zcl.Header, []byte, error) {
	schema, err := c.def.ResolveServerCommand(commandID)
	if err != nil {
		return zcl.Header{}, nil, err
	}

	mc, mfg := c.manufacturerSpecific()
	if schema.ManufacturerSpecific {
		mfg = mfg || c.ManufacturerCode != nil
	}
	header := zcl.Header{
		FrameType:            zcl.FrameTypeClusterSpecific,
		ManufacturerSpecific: mfg,
		ManufacturerCode:     mc,
		Direction:            zcl.DirectionClientToServer,
		TSN:                  c.sender.NextTSN(),
		CommandID:            commandID,
	}
	return c.sender.Send(ctx, c.endpoint, c.ClusterID, header, args, awaitReply)
}

// HandleReportAttributes processes an inbound report-attributes command
// (0x0A): every record writes through to the cache and fans out
// attribute_updated; a default response is synthesized when the frame
// requests one.
func (c *Cluster) HandleReportAttributes(header zcl.Header, payload []byte) (*zcl.DefaultResponse, error) {
	rest := payload
	for len(rest) > 0 {
		attr, next, err := zcl.DeserializeAttribute(rest)
		if err != nil {
			return nil, fmt.Errorf("report attributes: %w", err)
		}
		rest = next
		c.cache[attr.AttributeID] = attr.Value
		c.emitAttributeUpdated(attr.AttributeID, attr.Value)
	}
	if header.DisableDefaultResponse {
		return nil, nil
	}
	resp := zcl.NewDefaultResponse(header.CommandID, types.NewStatus(types.StatusSuccess))
	return &resp, nil
}

// HandleUnknown is called when an inbound frame targets this cluster but
// names a command the registry's schema does not recognize: it emits
// unknown_cluster_message and, if requested, returns a default response to
// synthesize (DEFAULT_RESPONSE is commonly used to decline unsupported
// commands).
func (c *Cluster) HandleUnknown(header zcl.Header) *zcl.DefaultResponse {
	c.bus.Publish(events.NewUnknownClusterMessageEvent(c.ieee, c.endpoint, c.ClusterID, header.TSN))
	if header.DisableDefaultResponse {
		return nil
	}
	resp := zcl.NewDefaultResponse(header.CommandID, types.NewStatus(types.StatusUnsupClusterCommand))
	return &resp
}

func (c *Cluster) emitAttributeUpdated(id types.AttributeID, v zcl.AttributeValue) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewAttributeUpdatedEvent(c.ieee, c.endpoint, c.ClusterID, id, v))
}
