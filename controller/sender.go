package controller

import (
	"context"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// deviceSender is the cluster.Sender every endpoint of one device shares:
// it closes over the controller (for TSN allocation and the radio path)
// and the device (for its NWK address and pending-request table), neither
// of which a cluster or endpoint instance is allowed to reach directly.
type deviceSender struct {
	ctrl *Controller
	dev  *device.Device
}

func (s *deviceSender) NextTSN() uint8 { return s.ctrl.nextTSN() }

func (s *deviceSender) Send(ctx context.Context, ep types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, awaitReply bool) (zcl.Header, []byte, error) {
	return s.ctrl.sendToDevice(ctx, s.dev, ep, clusterID, header, payload, awaitReply)
}

// ZCLSenderFor returns dev's cluster.Sender, the same seam every one of its
// endpoints already sends through. Packages outside controller that need to
// originate a ZCL frame against a specific device (the ota manager, for
// instance) without going through a Cluster's own command set use this
// rather than reaching into device internals.
func (c *Controller) ZCLSenderFor(dev *device.Device) cluster.Sender {
	return &deviceSender{ctrl: c, dev: dev}
}

// groupSender is the cluster.Sender a group's virtual endpoint sends
// through: every Send multicasts to the group address rather than a single
// device's NWK address, and never awaits a reply regardless of awaitReply —
// an arbitrary number of members may answer, so there is no single
// response to correlate against.
type groupSender struct {
	ctrl *Controller
	id   types.GroupID
}

func (s *groupSender) NextTSN() uint8 { return s.ctrl.nextTSN() }

func (s *groupSender) Send(ctx context.Context, _ types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, _ bool) (zcl.Header, []byte, error) {
	if err := s.ctrl.sendToGroup(ctx, s.id, clusterID, header, payload); err != nil {
		return zcl.Header{}, nil, err
	}
	return header, nil, nil
}

// GroupSenderFor returns a cluster.Sender that multicasts to every member of
// groupID instead of unicasting to one device.
func (c *Controller) GroupSenderFor(groupID types.GroupID) cluster.Sender {
	return &groupSender{ctrl: c, id: groupID}
}
