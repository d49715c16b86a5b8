package zdo

import (
	"context"
	"fmt"
	"time"

	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/types"
)

// Reply timeouts mirror controller's apsReplyTimeout/apsReplyTimeoutExtended:
// a sleepy end device gets the extended window since a ZDO request queues
// at its parent the same way a ZCL one does.
const (
	replyTimeout         = 5 * time.Second
	replyTimeoutExtended = 28 * time.Second
)

// Client is the one place ZDO framing is built and torn down: every
// outbound request reserves a TSN against the target device's correlator,
// sends a bare [tsn]+body frame, and blocks for the matching response.
type Client struct {
	sender    Sender
	devices   DeviceProvider
	discovery *concurrency.Correlator
}

// NewClient binds a Client to the sender and device table it issues
// requests through. discovery is the correlator shared with Server for
// requests addressed to a NWK address with no device-table entry yet
// (ResolveIEEE) — every other request reserves against the target
// device's own correlator instead.
func NewClient(sender Sender, devices DeviceProvider, discovery *concurrency.Correlator) *Client {
	return &Client{sender: sender, devices: devices, discovery: discovery}
}

func (c *Client) request(ctx context.Context, nwk types.NWKAddress, cmd CommandID, body []byte) ([]byte, error) {
	dev, ok := c.devices.DeviceByNWK(nwk)
	if !ok {
		return nil, fmt.Errorf("%w: nwk %s", ErrUnknownDevice, nwk)
	}

	tsn := c.sender.NextTSN()
	req, err := dev.Correlator.Reserve(tsn)
	if err != nil {
		return nil, err
	}
	defer req.Close()

	frame := append([]byte{tsn}, body...)
	if err := c.sender.SendRaw(ctx, nwk, cmd.ClusterID(), frame); err != nil {
		return nil, err
	}

	timeout := replyTimeout
	if !dev.NodeDescriptor().MACCapabilities.RxOnWhenIdle() {
		timeout = replyTimeoutExtended
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := req.Wait(waitCtx)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

// ActiveEndpoints implements device.ZDOClient: the first half of the
// ZDO_INIT state a newly joined device runs through.
func (c *Client) ActiveEndpoints(ctx context.Context, nwk types.NWKAddress) ([]types.EndpointID, error) {
	req := ActiveEPReqBody{NWKAddrOfInterest: nwk}
	body, err := c.request(ctx, nwk, ActiveEPReq, SerializeActiveEPReq(req))
	if err != nil {
		return nil, err
	}
	rsp, err := DeserializeActiveEPRsp(body)
	if err != nil {
		return nil, err
	}
	if !rsp.Status.IsSuccess() {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, rsp.Status)
	}
	return rsp.ActiveEPList, nil
}

// SimpleDescriptor implements device.ZDOClient: the per-endpoint query the
// ZDO_INIT state issues once for every id ActiveEndpoints returned.
func (c *Client) SimpleDescriptor(ctx context.Context, nwk types.NWKAddress, ep types.EndpointID) (device.SimpleDescriptor, error) {
	req := SimpleDescReqBody{NWKAddrOfInterest: nwk, Endpoint: ep}
	body, err := c.request(ctx, nwk, SimpleDescReq, SerializeSimpleDescReq(req))
	if err != nil {
		return device.SimpleDescriptor{}, err
	}
	rsp, err := DeserializeSimpleDescRsp(body)
	if err != nil {
		return device.SimpleDescriptor{}, err
	}
	if !rsp.Status.IsSuccess() || rsp.Descriptor == nil {
		return device.SimpleDescriptor{}, fmt.Errorf("%w: %s", ErrRequestFailed, rsp.Status)
	}
	return device.SimpleDescriptor{
		ProfileID:   rsp.Descriptor.ProfileID,
		DeviceType:  rsp.Descriptor.DeviceType,
		InClusters:  rsp.Descriptor.InputClusters,
		OutClusters: rsp.Descriptor.OutputClusters,
	}, nil
}

// IEEEAddr resolves nwk's permanent IEEE address.
func (c *Client) IEEEAddr(ctx context.Context, nwk types.NWKAddress) (types.IEEEAddress, error) {
	body, err := c.request(ctx, nwk, IEEEAddrReq, SerializeIEEEAddrReq(IEEEAddrReqBody{NWKAddrOfInterest: nwk}))
	if err != nil {
		return types.IEEEAddress{}, err
	}
	rsp, err := DeserializeIEEEAddrRsp(body)
	if err != nil {
		return types.IEEEAddress{}, err
	}
	if !rsp.Status.IsSuccess() {
		return types.IEEEAddress{}, fmt.Errorf("%w: %s", ErrRequestFailed, rsp.Status)
	}
	return rsp.IEEE, nil
}

// NWKAddr resolves ieee's current short address, addressed via whatever
// NWK address the caller last knew it at (a discovery cache entry or the
// coordinator, most commonly).
func (c *Client) NWKAddr(ctx context.Context, via types.NWKAddress, ieee types.IEEEAddress) (types.NWKAddress, error) {
	req := NWKAddrReqBody{IEEE: ieee, RequestType: 0x00}
	body, err := c.request(ctx, via, NWKAddrReq, SerializeNWKAddrReq(req))
	if err != nil {
		return 0, err
	}
	rsp, err := DeserializeNWKAddrRsp(body)
	if err != nil {
		return 0, err
	}
	if !rsp.Status.IsSuccess() {
		return 0, fmt.Errorf("%w: %s", ErrRequestFailed, rsp.Status)
	}
	return rsp.NWK, nil
}

// Bind requests a binding between a local endpoint/cluster and dst.
func (c *Client) Bind(ctx context.Context, nwk types.NWKAddress, req BindReqBody) (Status, error) {
	body, err := SerializeBindReq(req)
	if err != nil {
		return Status{}, err
	}
	rspBody, err := c.request(ctx, nwk, BindReq, body)
	if err != nil {
		return Status{}, err
	}
	rsp, err := DeserializeStatusOnlyRsp(rspBody)
	return rsp.Status, err
}

// Unbind removes a binding previously created with Bind.
func (c *Client) Unbind(ctx context.Context, nwk types.NWKAddress, req BindReqBody) (Status, error) {
	body, err := SerializeBindReq(req)
	if err != nil {
		return Status{}, err
	}
	rspBody, err := c.request(ctx, nwk, UnbindReq, body)
	if err != nil {
		return Status{}, err
	}
	rsp, err := DeserializeStatusOnlyRsp(rspBody)
	return rsp.Status, err
}

// MgmtLeave asks dev (or, with a zero DeviceAddress, the target itself) to
// leave the network.
func (c *Client) MgmtLeave(ctx context.Context, nwk types.NWKAddress, req MgmtLeaveReqBody) (Status, error) {
	rspBody, err := c.request(ctx, nwk, MgmtLeaveReq, SerializeMgmtLeaveReq(req))
	if err != nil {
		return Status{}, err
	}
	rsp, err := DeserializeStatusOnlyRsp(rspBody)
	return rsp.Status, err
}

// MgmtPermitJoining opens or closes nwk's own sub-tree to joins.
func (c *Client) MgmtPermitJoining(ctx context.Context, nwk types.NWKAddress, req MgmtPermitJoiningReqBody) (Status, error) {
	rspBody, err := c.request(ctx, nwk, MgmtPermitJoiningReq, SerializeMgmtPermitJoiningReq(req))
	if err != nil {
		return Status{}, err
	}
	rsp, err := DeserializeStatusOnlyRsp(rspBody)
	return rsp.Status, err
}

// MgmtLqi fetches one page of nwk's neighbor table.
func (c *Client) MgmtLqi(ctx context.Context, nwk types.NWKAddress, startIndex uint8) (MgmtLqiRspBody, error) {
	body, err := c.request(ctx, nwk, MgmtLqiReq, SerializeMgmtLqiReq(MgmtLqiReqBody{StartIndex: startIndex}))
	if err != nil {
		return MgmtLqiRspBody{}, err
	}
	return DeserializeMgmtLqiRsp(body)
}

// MgmtRtg fetches one page of nwk's routing table.
func (c *Client) MgmtRtg(ctx context.Context, nwk types.NWKAddress, startIndex uint8) (MgmtRtgRspBody, error) {
	body, err := c.request(ctx, nwk, MgmtRtgReq, SerializeMgmtRtgReq(MgmtRtgReqBody{StartIndex: startIndex}))
	if err != nil {
		return MgmtRtgRspBody{}, err
	}
	return DeserializeMgmtRtgRsp(body)
}

// MgmtNWKUpdate would request a channel change or energy scan on nwk's
// network (Mgmt_NWK_Update_req). This core's channel management is
// confined to what the radio driver does at formation time, so the
// command is registered in commandNames (for Name()/log readability) but
// has no wire codec: any attempt to issue it fails immediately rather
// than silently building a malformed frame.
func (c *Client) MgmtNWKUpdate(ctx context.Context, nwk types.NWKAddress) error {
	return ErrUnsupportedCommand
}

// ResolveIEEE asks nwk directly for its own IEEE address, for a NWK address
// discovered in a neighbor or routing table page with no device-table entry
// yet. Unlike request, this reserves against the shared discovery
// correlator rather than a device's own, since no Device exists to own one
// until the address resolves.
func (c *Client) ResolveIEEE(ctx context.Context, nwk types.NWKAddress) (types.IEEEAddress, error) {
	tsn := c.sender.NextTSN()
	req, err := c.discovery.Reserve(tsn)
	if err != nil {
		return types.IEEEAddress{}, err
	}
	defer req.Close()

	body := SerializeIEEEAddrReq(IEEEAddrReqBody{NWKAddrOfInterest: nwk})
	frame := append([]byte{tsn}, body...)
	if err := c.sender.SendRaw(ctx, nwk, IEEEAddrReq, frame); err != nil {
		return types.IEEEAddress{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, replyTimeoutExtended)
	defer cancel()
	res, err := req.Wait(waitCtx)
	if err != nil {
		return types.IEEEAddress{}, err
	}
	rsp, err := DeserializeIEEEAddrRsp(res.Payload)
	if err != nil {
		return types.IEEEAddress{}, err
	}
	if !rsp.Status.IsSuccess() {
		return types.IEEEAddress{}, fmt.Errorf("%w: %s", ErrRequestFailed, rsp.Status)
	}
	return rsp.IEEE, nil
}
