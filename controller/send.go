package controller

import (
	"context"
	"fmt"

	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// sendToDevice is the one path every outbound packet takes: it reserves a
// pending-request slot when a reply is expected, builds the wire packet,
// acquires the concurrency gate for the duration of the radio call, and
// (if awaiting a reply) blocks on the device's correlator with the
// sleepy-device-aware timeout.
func (c *Controller) sendToDevice(ctx context.Context, dev *device.Device, dstEP types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, awaitReply bool) (zcl.Header, []byte, error) {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return zcl.Header{}, nil, ErrNotStarted
	}

	var req *concurrency.Request
	if awaitReply {
		r, err := dev.Correlator.Reserve(header.TSN)
		if err != nil {
			return zcl.Header{}, nil, err
		}
		req = r
		defer req.Close()
	}

	frame := append(zcl.SerializeHeader(header), payload...)
	ep := dstEP
	pkt := transport.ZigbeePacket{
		Dst:         types.NWKAddr(dev.NWK()),
		SrcEP:       types.EndpointID(c.opts.coordinatorEndpoint),
		DstEP:       &ep,
		TSN:         header.TSN,
		ProfileID:   homeAutomationProfile,
		ClusterID:   clusterID,
		Data:        frame,
		SourceRoute: c.sourceRouteTo(ctx, dev.IEEE),
	}

	if err := c.gate.Acquire(ctx); err != nil {
		return zcl.Header{}, nil, err
	}
	result, err := c.radio.SendPacket(ctx, pkt)
	c.gate.Release()
	if err != nil {
		return zcl.Header{}, nil, fmt.Errorf("send_packet: %w", err)
	}
	if !result.Delivered {
		return zcl.Header{}, nil, fmt.Errorf("%w: tsn %d", ErrDeliveryNotConfirmed, header.TSN)
	}

	if !awaitReply {
		return header, nil, nil
	}

	timeout := apsReplyTimeout
	if !dev.NodeDescriptor().MACCapabilities.RxOnWhenIdle() {
		timeout = apsReplyTimeoutExtended
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := req.Wait(waitCtx)
	if err != nil {
		return zcl.Header{}, nil, err
	}
	return res.Header, res.Payload, nil
}

// sourceRouteTo asks the radio for the relay chain to reach ieee, if any.
// Nothing is cached across sends: routes can change between one request
// and the next, so every send resolves its own route fresh. A lookup
// failure (or a radio that has no route, e.g. a direct neighbor) is not
// fatal — the packet still goes out, just without an explicit route.
func (c *Controller) sourceRouteTo(ctx context.Context, ieee types.IEEEAddress) []types.NWKAddress {
	route, err := c.radio.BuildSourceRouteTo(ctx, ieee)
	if err != nil {
		c.log.Debug().Err(err).Msg("source route lookup failed, sending without one")
		return nil
	}
	return route
}

// sendToGroup multicasts a command to every member of a group in one
// transmission: no destination endpoint (the group address alone selects
// recipients) and no reply is ever awaited, since an arbitrary number of
// members may answer.
func (c *Controller) sendToGroup(ctx context.Context, groupID types.GroupID, clusterID types.ClusterID, header zcl.Header, payload []byte) error {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	frame := append(zcl.SerializeHeader(header), payload...)
	pkt := transport.ZigbeePacket{
		Dst:       types.GroupAddr(groupID),
		SrcEP:     types.EndpointID(c.opts.coordinatorEndpoint),
		TSN:       header.TSN,
		ProfileID: homeAutomationProfile,
		ClusterID: clusterID,
		Data:      frame,
	}

	if err := c.gate.Acquire(ctx); err != nil {
		return err
	}
	_, err := c.radio.SendPacket(ctx, pkt)
	c.gate.Release()
	if err != nil {
		return fmt.Errorf("send_packet: %w", err)
	}
	return nil
}
