package controller

import (
	"context"
	"fmt"

	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
)

// sendZDORaw fires a ZDO frame (a TSN byte plus the command's already
// serialized body) at nwk under the ZDP profile. ZDO framing carries no
// ZCL frame-control byte and no separate command id field — clusterID
// alone identifies the command on the wire — so this bypasses sendToDevice
// entirely rather than forcing a zcl.Header through it.
func (c *Controller) sendZDORaw(ctx context.Context, nwk types.NWKAddress, clusterID types.ClusterID, frame []byte) error {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	ep := types.EndpointZDO
	pkt := transport.ZigbeePacket{
		Dst:       types.NWKAddr(nwk),
		SrcEP:     types.EndpointZDO,
		DstEP:     &ep,
		TSN:       frame[0],
		ProfileID: zdpProfile,
		ClusterID: clusterID,
		Data:      frame,
	}

	if err := c.gate.Acquire(ctx); err != nil {
		return err
	}
	result, err := c.radio.SendPacket(ctx, pkt)
	c.gate.Release()
	if err != nil {
		return fmt.Errorf("send_packet: %w", err)
	}
	if !result.Delivered {
		return fmt.Errorf("%w: tsn %d", ErrDeliveryNotConfirmed, frame[0])
	}
	return nil
}

// zdpProfile is the reserved Zigbee Device Profile id ZDO traffic is sent
// under, distinct from the application profile (homeAutomationProfile)
// every other endpoint uses.
const zdpProfile = uint16(0x0000)

// ZDOSenderAdapter exposes just enough of Controller for the zdo package to
// issue its own requests without controller importing zdo (the same
// dependency-inversion seam cluster.Sender gives cluster.Cluster).
type ZDOSenderAdapter struct {
	ctrl *Controller
}

// NextTSN hands out the controller's shared TSN counter.
func (a *ZDOSenderAdapter) NextTSN() uint8 { return a.ctrl.nextTSN() }

// SendRaw sends a pre-built ZDO frame to nwk under clusterID.
func (a *ZDOSenderAdapter) SendRaw(ctx context.Context, nwk types.NWKAddress, clusterID types.ClusterID, frame []byte) error {
	return a.ctrl.sendZDORaw(ctx, nwk, clusterID, frame)
}

// ZDOSender returns the adapter the zdo package's Client binds to.
func (c *Controller) ZDOSender() *ZDOSenderAdapter {
	return &ZDOSenderAdapter{ctrl: c}
}
