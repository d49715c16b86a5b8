package controller

import (
	"context"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/concurrency"
	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/transport"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

type fakeRadio struct {
	handler     transport.PacketHandler
	formed      bool
	sendResult  transport.Result
	sendErr     error
	onSend      func(transport.ZigbeePacket)
	sentPackets []transport.ZigbeePacket
	route       []types.NWKAddress
	routeErr    error
}

func (f *fakeRadio) Connect(ctx context.Context) error    { return nil }
func (f *fakeRadio) Disconnect(ctx context.Context) error { return nil }

func (f *fakeRadio) FormNetwork(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	f.formed = true
	return nil
}

func (f *fakeRadio) LoadNetworkInfo(ctx context.Context, loadDevices bool) (types.NodeInfo, types.NetworkInfo, error) {
	if !f.formed {
		return types.NodeInfo{}, types.NetworkInfo{}, transport.ErrNetworkNotFormed
	}
	return types.NodeInfo{}, types.NetworkInfo{}, nil
}

func (f *fakeRadio) WriteNetworkInfo(ctx context.Context, node types.NodeInfo, network types.NetworkInfo) error {
	return nil
}

func (f *fakeRadio) SendPacket(ctx context.Context, pkt transport.ZigbeePacket) (transport.Result, error) {
	f.sentPackets = append(f.sentPackets, pkt)
	if f.onSend != nil {
		f.onSend(pkt)
	}
	if f.sendErr != nil {
		return transport.Result{}, f.sendErr
	}
	if f.sendResult == (transport.Result{}) {
		return transport.Result{Delivered: true}, nil
	}
	return f.sendResult, nil
}

func (f *fakeRadio) PermitNCP(ctx context.Context, d time.Duration) error { return nil }

func (f *fakeRadio) BuildSourceRouteTo(ctx context.Context, ieee types.IEEEAddress) ([]types.NWKAddress, error) {
	return f.route, f.routeErr
}

func (f *fakeRadio) OnPacket(h transport.PacketHandler) { f.handler = h }

type fakeZDO struct{}

func (fakeZDO) ActiveEndpoints(ctx context.Context, nwk types.NWKAddress) ([]types.EndpointID, error) {
	return nil, nil
}

func (fakeZDO) SimpleDescriptor(ctx context.Context, nwk types.NWKAddress, ep types.EndpointID) (device.SimpleDescriptor, error) {
	return device.SimpleDescriptor{}, nil
}

func onOffRegistry() *cluster.Registry {
	r := cluster.NewRegistry()
	r.Register(cluster.NewDefinition(0x0006, "OnOff",
		[]cluster.AttributeSchema{{ID: 0x0000, Name: "on_off", Type: zcl.TypeBool}},
		[]cluster.CommandSchema{{ID: 0x00, Name: "off"}, {ID: 0x01, Name: "on"}},
		nil,
	))
	return r
}

func ieeeOf(last byte) types.IEEEAddress {
	return types.IEEEAddress{0x00, 0x15, 0x8d, 0x00, 0x01, 0x02, 0x03, last}
}

func newTestController() (*Controller, *fakeRadio) {
	radio := &fakeRadio{}
	c := New(radio, onOffRegistry(), events.NewEventBus(), WithMaxConcurrentRequests(4))
	c.SetZDOClient(fakeZDO{})
	return c, radio
}

func TestHandleJoinUnknownIEEECreatesDevice(t *testing.T) {
	c, _ := newTestController()
	ch := make(chan events.Event, 8)
	c.bus.Subscribe(func(e events.Event) { ch <- e })

	ieee := ieeeOf(0x01)
	c.HandleJoin(context.Background(), types.NWKAddress(0x1111), ieee, 0)

	dev, ok := c.DeviceByIEEE(ieee)
	if !ok {
		t.Fatal("expected device to be created")
	}
	if _, ok := c.DeviceByNWK(types.NWKAddress(0x1111)); !ok {
		t.Fatal("expected nwk index to be populated")
	}
	if dev.NWK() != 0x1111 {
		t.Errorf("NWK() = %#x, want 0x1111", dev.NWK())
	}

	select {
	case e := <-ch:
		if _, ok := e.(events.DeviceJoinedEvent); !ok {
			t.Fatalf("expected DeviceJoinedEvent, got %T", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for device_joined event")
	}
}

func TestHandleJoinDifferentNWKUpdatesIndex(t *testing.T) {
	c, _ := newTestController()
	ieee := ieeeOf(0x02)
	c.HandleJoin(context.Background(), types.NWKAddress(0x2222), ieee, 0)
	c.HandleJoin(context.Background(), types.NWKAddress(0x3333), ieee, 0)

	dev, ok := c.DeviceByIEEE(ieee)
	if !ok {
		t.Fatal("expected device still present")
	}
	if dev.NWK() != 0x3333 {
		t.Errorf("NWK() = %#x, want 0x3333", dev.NWK())
	}
	if _, ok := c.DeviceByNWK(0x2222); ok {
		t.Error("expected the old nwk index entry to be removed")
	}
	if _, ok := c.DeviceByNWK(0x3333); !ok {
		t.Error("expected the new nwk index entry to be present")
	}
}

func TestHandleJoinNWKConflictEvictsStaleDevice(t *testing.T) {
	c, _ := newTestController()
	ieeeA := ieeeOf(0x04)
	ieeeB := ieeeOf(0x05)
	c.HandleJoin(context.Background(), types.NWKAddress(0x5555), ieeeA, 0)
	c.HandleJoin(context.Background(), types.NWKAddress(0x5555), ieeeB, 0)

	if _, ok := c.DeviceByIEEE(ieeeA); ok {
		t.Error("expected the stale device to be evicted")
	}
	dev, ok := c.DeviceByNWK(0x5555)
	if !ok || dev.IEEE != ieeeB {
		t.Fatal("expected the nwk address to now resolve to the new device")
	}
}

func TestPacketReceivedRoutesZDOPackets(t *testing.T) {
	c, _ := newTestController()
	var got bool
	c.OnZDOPacket(func(pkt transport.ZigbeePacket) { got = true })

	zdoEP := types.EndpointZDO
	c.packetReceived(transport.ZigbeePacket{DstEP: &zdoEP})
	if !got {
		t.Fatal("expected the zdo handler to be invoked")
	}
}

func TestPacketReceivedFromUnknownDeviceIsDropped(t *testing.T) {
	c, _ := newTestController()
	ep := types.EndpointID(1)
	// Should not panic even though no device is registered at this nwk.
	c.packetReceived(transport.ZigbeePacket{
		Src:   types.NWKAddr(0x9999),
		SrcEP: ep,
		Data:  []byte{0x00, 0x01, 0x00},
	})
}

func TestStartupPropagatesErrorWithoutAutoForm(t *testing.T) {
	radio := &fakeRadio{}
	c := New(radio, onOffRegistry(), events.NewEventBus())
	err := c.Startup(context.Background(), types.NodeInfo{}, types.NetworkInfo{})
	if err == nil {
		t.Fatal("expected an error when the network is not formed and auto_form is disabled")
	}
	if radio.formed {
		t.Error("form_network should not have been called")
	}
}

func TestStartupFormsNetworkWhenAutoFormEnabled(t *testing.T) {
	radio := &fakeRadio{}
	c := New(radio, onOffRegistry(), events.NewEventBus(), WithAutoForm(true))
	if err := c.Startup(context.Background(), types.NodeInfo{}, types.NetworkInfo{}); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if !radio.formed {
		t.Error("expected form_network to have been called")
	}
}

func TestSendToDeviceAwaitsReply(t *testing.T) {
	c, radio := newTestController()
	c.started = true
	ieee := ieeeOf(0x06)
	c.HandleJoin(context.Background(), types.NWKAddress(0x7777), ieee, 0)
	dev, _ := c.DeviceByIEEE(ieee)

	radio.onSend = func(pkt transport.ZigbeePacket) {
		dev.Correlator.Resolve(pkt.TSN, concurrency.Result{
			Header:  zcl.Header{TSN: pkt.TSN, CommandID: zcl.CommandDefaultResponse},
			Payload: []byte{0x00},
		})
	}

	header := zcl.Header{TSN: 42}
	_, _, err := c.sendToDevice(context.Background(), dev, 1, 0x0006, header, nil, true)
	if err != nil {
		t.Fatalf("sendToDevice: %v", err)
	}
}

func TestSendToDeviceAttachesSourceRoute(t *testing.T) {
	c, radio := newTestController()
	c.started = true
	ieee := ieeeOf(0x07)
	c.HandleJoin(context.Background(), types.NWKAddress(0x7778), ieee, 0)
	dev, _ := c.DeviceByIEEE(ieee)

	radio.route = []types.NWKAddress{0x1111, 0x2222}

	header := zcl.Header{TSN: 43}
	_, _, err := c.sendToDevice(context.Background(), dev, 1, 0x0006, header, nil, false)
	if err != nil {
		t.Fatalf("sendToDevice: %v", err)
	}

	if len(radio.sentPackets) != 1 {
		t.Fatalf("expected 1 sent packet, got %d", len(radio.sentPackets))
	}
	got := radio.sentPackets[0].SourceRoute
	if len(got) != 2 || got[0] != 0x1111 || got[1] != 0x2222 {
		t.Fatalf("expected source route [0x1111 0x2222], got %v", got)
	}
}

func TestSendToDeviceSourceRouteLookupFailureIsNonFatal(t *testing.T) {
	c, radio := newTestController()
	c.started = true
	ieee := ieeeOf(0x08)
	c.HandleJoin(context.Background(), types.NWKAddress(0x7779), ieee, 0)
	dev, _ := c.DeviceByIEEE(ieee)

	radio.routeErr = context.DeadlineExceeded

	header := zcl.Header{TSN: 44}
	_, _, err := c.sendToDevice(context.Background(), dev, 1, 0x0006, header, nil, false)
	if err != nil {
		t.Fatalf("sendToDevice: %v", err)
	}
	if radio.sentPackets[0].SourceRoute != nil {
		t.Fatalf("expected nil source route after lookup failure, got %v", radio.sentPackets[0].SourceRoute)
	}
}

func TestPermitJoinBroadcast(t *testing.T) {
	c, _ := newTestController()
	ch := make(chan events.Event, 4)
	c.bus.Subscribe(func(e events.Event) { ch <- e })

	if err := c.PermitJoin(context.Background(), 60*time.Second, nil); err != nil {
		t.Fatalf("PermitJoin: %v", err)
	}

	select {
	case e := <-ch:
		if _, ok := e.(events.PermitJoinChangedEvent); !ok {
			t.Fatalf("expected PermitJoinChangedEvent, got %T", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for permit_join_changed event")
	}
}
