package zdo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
)

type fakeSender struct {
	tsn     uint8
	sent    []sentFrame
	sendErr error
}

type sentFrame struct {
	nwk       types.NWKAddress
	clusterID types.ClusterID
	frame     []byte
}

func (f *fakeSender) NextTSN() uint8 {
	f.tsn++
	return f.tsn
}

func (f *fakeSender) SendRaw(ctx context.Context, nwk types.NWKAddress, clusterID types.ClusterID, frame []byte) error {
	f.sent = append(f.sent, sentFrame{nwk: nwk, clusterID: clusterID, frame: frame})
	return f.sendErr
}

func onOffRegistry() *cluster.Registry {
	r := cluster.NewRegistry()
	r.Register(cluster.NewDefinition(0x0006, "OnOff", nil, nil, nil))
	return r
}

func testDevice(ieee types.IEEEAddress, nwk types.NWKAddress) *device.Device {
	return device.New(ieee, nwk, onOffRegistry(), nil, nil, events.NewEventBus())
}

type fakeDeviceProvider struct {
	devices map[types.NWKAddress]*device.Device
}

func (f *fakeDeviceProvider) DeviceByNWK(nwk types.NWKAddress) (*device.Device, bool) {
	d, ok := f.devices[nwk]
	return d, ok
}

func ieeeOf(last byte) types.IEEEAddress {
	return types.IEEEAddress{0x00, 0x15, 0x8d, 0x00, 0x01, 0x02, 0x03, last}
}

func TestClientActiveEndpointsRoundTrips(t *testing.T) {
	nwk := types.NWKAddress(0x1234)
	dev := testDevice(ieeeOf(1), nwk)
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{nwk: dev}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	go func() {
		deadline := time.After(time.Second)
		for {
			if len(sender.sent) > 0 {
				tsn := sender.sent[0].frame[0]
				rsp := ActiveEPRspBody{Status: NewStatus(StatusSuccess), NWKAddrOfInterest: nwk, ActiveEPList: []types.EndpointID{1, 2}}
				dev.Correlator.Resolve(tsn, concurrency.Result{Payload: SerializeActiveEPRsp(rsp)})
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	eps, err := client.ActiveEndpoints(context.Background(), nwk)
	if err != nil {
		t.Fatalf("ActiveEndpoints: %v", err)
	}
	if len(eps) != 2 || eps[0] != 1 || eps[1] != 2 {
		t.Fatalf("expected [1 2], got %v", eps)
	}
}

func TestClientActiveEndpointsUnknownDevice(t *testing.T) {
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	_, err := client.ActiveEndpoints(context.Background(), 0x9999)
	if !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestClientActiveEndpointsFailureStatus(t *testing.T) {
	nwk := types.NWKAddress(0x1234)
	dev := testDevice(ieeeOf(2), nwk)
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{nwk: dev}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	go func() {
		deadline := time.After(time.Second)
		for {
			if len(sender.sent) > 0 {
				tsn := sender.sent[0].frame[0]
				rsp := ActiveEPRspBody{Status: NewStatus(StatusNotActive), NWKAddrOfInterest: nwk}
				dev.Correlator.Resolve(tsn, concurrency.Result{Payload: SerializeActiveEPRsp(rsp)})
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	_, err := client.ActiveEndpoints(context.Background(), nwk)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestClientSimpleDescriptorRoundTrips(t *testing.T) {
	nwk := types.NWKAddress(0x1234)
	dev := testDevice(ieeeOf(3), nwk)
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{nwk: dev}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	go func() {
		deadline := time.After(time.Second)
		for {
			if len(sender.sent) > 0 {
				tsn := sender.sent[0].frame[0]
				rsp := SimpleDescRspBody{
					Status:            NewStatus(StatusSuccess),
					NWKAddrOfInterest: nwk,
					Descriptor: &SimpleDescriptor{
						Endpoint:      1,
						ProfileID:     0x0104,
						DeviceType:    0x0100,
						InputClusters: []types.ClusterID{0x0006},
					},
				}
				dev.Correlator.Resolve(tsn, concurrency.Result{Payload: SerializeSimpleDescRsp(rsp)})
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	desc, err := client.SimpleDescriptor(context.Background(), nwk, 1)
	if err != nil {
		t.Fatalf("SimpleDescriptor: %v", err)
	}
	if desc.ProfileID != 0x0104 || len(desc.InClusters) != 1 || desc.InClusters[0] != 0x0006 {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
}

func TestClientResolveIEEEUsesDiscoveryCorrelator(t *testing.T) {
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{}}
	discovery := concurrency.NewCorrelator()
	client := NewClient(sender, devices, discovery)

	nwk := types.NWKAddress(0xABCD)
	wantIEEE := ieeeOf(9)

	go func() {
		deadline := time.After(time.Second)
		for {
			if len(sender.sent) > 0 {
				tsn := sender.sent[0].frame[0]
				rsp := AddrRsp{Status: NewStatus(StatusSuccess), IEEE: wantIEEE, NWK: nwk}
				discovery.Resolve(tsn, concurrency.Result{Payload: SerializeIEEEAddrRsp(rsp)})
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	got, err := client.ResolveIEEE(context.Background(), nwk)
	if err != nil {
		t.Fatalf("ResolveIEEE: %v", err)
	}
	if got != wantIEEE {
		t.Fatalf("expected %v, got %v", wantIEEE, got)
	}
}

func TestClientRequestSendFailurePropagates(t *testing.T) {
	nwk := types.NWKAddress(0x1234)
	dev := testDevice(ieeeOf(4), nwk)
	wantErr := errors.New("radio down")
	sender := &fakeSender{sendErr: wantErr}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{nwk: dev}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	_, err := client.ActiveEndpoints(context.Background(), nwk)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestClientMgmtNWKUpdateUnsupported(t *testing.T) {
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	err := client.MgmtNWKUpdate(context.Background(), 0x1234)
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("expected ErrUnsupportedCommand, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no frame to be sent, got %d", len(sender.sent))
	}
}

func TestClientBindRoundTrips(t *testing.T) {
	nwk := types.NWKAddress(0x1234)
	dev := testDevice(ieeeOf(5), nwk)
	sender := &fakeSender{}
	devices := &fakeDeviceProvider{devices: map[types.NWKAddress]*device.Device{nwk: dev}}
	client := NewClient(sender, devices, concurrency.NewCorrelator())

	go func() {
		deadline := time.After(time.Second)
		for {
			if len(sender.sent) > 0 {
				tsn := sender.sent[0].frame[0]
				dev.Correlator.Resolve(tsn, concurrency.Result{Payload: SerializeStatusOnlyRsp(StatusOnlyRsp{Status: NewStatus(StatusSuccess)})})
				return
			}
			select {
			case <-deadline:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	status, err := client.Bind(context.Background(), nwk, BindReqBody{
		SrcAddress:  ieeeOf(5),
		SrcEndpoint: 1,
		ClusterID:   0x0006,
		DstAddress:  MultiAddress{AddrMode: multiAddrModeExtended, IEEE: ieeeOf(6), Endpoint: 1},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !status.IsSuccess() {
		t.Fatalf("expected SUCCESS, got %v", status)
	}
}
