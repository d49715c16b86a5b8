package controller

import (
	"context"

	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// ZDOHandler receives every inbound packet addressed to endpoint 0. It is
// set by the zdo package during wiring rather than imported directly here,
// so this package never depends on the ZDO command registry.
type ZDOHandler func(transport.ZigbeePacket)

// OnZDOPacket registers the endpoint-0 packet handler.
func (c *Controller) OnZDOPacket(h ZDOHandler) {
	c.mu.Lock()
	c.zdoHandler = h
	c.mu.Unlock()
}

// ClusterHandler intercepts unsolicited inbound frames for one cluster id
// before they reach the generic endpoint dispatch, the way ZDOHandler does
// for endpoint 0. It reports whether it consumed the frame; a false return
// (an unrecognized command id, a foundation frame it doesn't own) falls
// through to ep.Dispatch as usual. Registered by packages like ota that run
// their own request/response protocol over a cluster's command set rather
// than the generic attribute/command model.
type ClusterHandler func(dev *device.Device, ep types.EndpointID, header zcl.Header, payload []byte) bool

// OnClusterPacket registers h as the interceptor for every inbound frame on
// clusterID, for any device. Only one handler may be registered per
// cluster id; a second call replaces the first.
func (c *Controller) OnClusterPacket(clusterID types.ClusterID, h ClusterHandler) {
	c.mu.Lock()
	if c.clusterHandlers == nil {
		c.clusterHandlers = make(map[types.ClusterID]ClusterHandler)
	}
	c.clusterHandlers[clusterID] = h
	c.mu.Unlock()
}

func (c *Controller) clusterHandler(clusterID types.ClusterID) (ClusterHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.clusterHandlers[clusterID]
	return h, ok
}

// packetReceived is the radio's PacketHandler: the data-flow entry point
// from inbound serial bytes through the radio driver to this callback —
// endpoint 0 goes to ZDO, else device lookup, then endpoint, then cluster.
func (c *Controller) packetReceived(pkt transport.ZigbeePacket) {
	if pkt.DstEP != nil && *pkt.DstEP == types.EndpointZDO {
		c.mu.RLock()
		h := c.zdoHandler
		c.mu.RUnlock()
		if h != nil {
			h(pkt)
		} else {
			c.log.Debug().Msg("zdo packet received with no handler registered, dropping")
		}
		return
	}

	srcNWK := pkt.Src.NWK()
	dev, ok := c.DeviceByNWK(srcNWK)
	if !ok {
		c.log.Debug().Str("nwk", srcNWK.String()).Msg("packet from unknown device, dropping")
		return
	}
	dev.Touch(pkt.LQI, pkt.RSSI)

	header, payload, err := zcl.DeserializeHeader(pkt.Data)
	if err != nil {
		c.log.Debug().Err(err).Msg("malformed zcl frame, dropping")
		return
	}

	if dev.Correlator.Pending(header.TSN) {
		if dev.Correlator.Resolve(header.TSN, concurrency.Result{Header: header, Payload: payload}) {
			return
		}
	}

	if h, ok := c.clusterHandler(pkt.ClusterID); ok && h(dev, pkt.SrcEP, header, payload) {
		return
	}

	ep, ok := dev.Endpoint(pkt.SrcEP)
	if !ok {
		c.log.Debug().Uint8("endpoint", uint8(pkt.SrcEP)).Msg("packet for unknown endpoint, dropping")
		return
	}

	result, err := ep.Dispatch(pkt.ClusterID, pkt.Data)
	if err != nil {
		c.log.Debug().Err(err).Msg("dispatch failed")
		return
	}
	if result.DefaultResponse != nil {
		c.sendDefaultResponse(dev, pkt.SrcEP, pkt.ClusterID, header, result.DefaultResponse.Serialize())
	}
}

// sendDefaultResponse fires a synthesized default response without
// awaiting a reply of its own; a failure here is logged, not propagated,
// since there is no caller left to hand the error to.
func (c *Controller) sendDefaultResponse(dev *device.Device, ep types.EndpointID, clusterID types.ClusterID, inbound zcl.Header, payload []byte) {
	respHeader := zcl.Header{
		FrameType: zcl.FrameTypeGeneral,
		Direction: opposite(inbound.Direction),
		TSN:       inbound.TSN,
		CommandID: zcl.CommandDefaultResponse,
	}
	if _, _, err := c.sendToDevice(context.Background(), dev, ep, clusterID, respHeader, payload, false); err != nil {
		c.log.Debug().Err(err).Msg("failed to send default response")
	}
}

func opposite(d zcl.Direction) zcl.Direction {
	if d == zcl.DirectionServerToClient {
		return zcl.DirectionClientToServer
	}
	return zcl.DirectionServerToClient
}
