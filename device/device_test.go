package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
)

type fakeZDO struct {
	endpoints []types.EndpointID
	descs     map[types.EndpointID]SimpleDescriptor
	descErr   map[types.EndpointID]error
	epErr     error
}

func (f *fakeZDO) ActiveEndpoints(ctx context.Context, nwk types.NWKAddress) ([]types.EndpointID, error) {
	if f.epErr != nil {
		return nil, f.epErr
	}
	return f.endpoints, nil
}

func (f *fakeZDO) SimpleDescriptor(ctx context.Context, nwk types.NWKAddress, ep types.EndpointID) (SimpleDescriptor, error) {
	if err, ok := f.descErr[ep]; ok {
		return SimpleDescriptor{}, err
	}
	return f.descs[ep], nil
}

func onOffRegistry() *cluster.Registry {
	r := cluster.NewRegistry()
	r.Register(cluster.NewDefinition(0x0006, "OnOff", nil, nil, nil))
	r.Register(cluster.NewDefinition(0x0000, "Basic", nil, nil, nil))
	return r
}

func testIEEE() types.IEEEAddress {
	return types.IEEEAddress{0x00, 0x15, 0x8d, 0x00, 0x01, 0x02, 0x03, 0x04}
}

func TestScheduleInitializeReachesEndpointsInit(t *testing.T) {
	zdo := &fakeZDO{
		endpoints: []types.EndpointID{1},
		descs: map[types.EndpointID]SimpleDescriptor{
			1: {ProfileID: 0x0104, DeviceType: 0x0100, InClusters: []types.ClusterID{0x0006}},
		},
		descErr: map[types.EndpointID]error{},
	}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus)
	d.ScheduleInitialize(context.Background())

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if _, ok := e.(events.DeviceInitializedEvent); ok {
				if d.Status() != StatusEndpointsInit {
					t.Fatalf("Status() = %v, want StatusEndpointsInit", d.Status())
				}
				if _, ok := d.Endpoints[1]; !ok {
					t.Fatal("expected endpoint 1 to be populated")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for device_initialized event")
		}
	}
}

func TestScheduleInitializeEndpointFailureMarksInactiveWithoutAbort(t *testing.T) {
	zdo := &fakeZDO{
		endpoints: []types.EndpointID{1, 2},
		descs: map[types.EndpointID]SimpleDescriptor{
			2: {ProfileID: 0x0104},
		},
		descErr: map[types.EndpointID]error{1: errors.New("no response")},
	}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus)
	d.ScheduleInitialize(context.Background())

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if _, ok := e.(events.DeviceInitializedEvent); ok {
				ep1 := d.Endpoints[1]
				if ep1 == nil {
					t.Fatal("expected endpoint 1 entry even though its descriptor failed")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for device_initialized event")
		}
	}
}

func TestScheduleInitializeSupersedesInFlightAttempt(t *testing.T) {
	zdo := &fakeZDO{endpoints: nil}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus)
	d.ScheduleInitialize(context.Background())
	d.ScheduleInitialize(context.Background())

	deadline := time.After(time.Second)
	count := 0
	for {
		select {
		case e := <-ch:
			if _, ok := e.(events.DeviceInitializedEvent); ok {
				count++
			}
		case <-time.After(100 * time.Millisecond):
			if count == 0 {
				t.Fatal("expected at least one device_initialized event from the superseding attempt")
			}
			return
		case <-deadline:
			t.Fatal("timed out")
		}
	}
}

func TestActiveEndpointsFailurePublishesInitFailure(t *testing.T) {
	zdo := &fakeZDO{epErr: errors.New("timeout")}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus)
	d.ScheduleInitialize(context.Background())

	select {
	case e := <-ch:
		if _, ok := e.(events.DeviceInitFailureEvent); !ok {
			t.Fatalf("expected DeviceInitFailureEvent, got %T", e)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for device_init_failure event")
	}
	if d.Status() == StatusEndpointsInit {
		t.Fatal("device should not reach ENDPOINTS_INIT after an active-endpoints failure")
	}
}

func TestSignatureRewriterCanAddAnUnreportedCluster(t *testing.T) {
	zdo := &fakeZDO{
		endpoints: []types.EndpointID{1},
		descs: map[types.EndpointID]SimpleDescriptor{
			1: {ProfileID: 0x0104, InClusters: []types.ClusterID{0x0006}},
		},
		descErr: map[types.EndpointID]error{},
	}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	rewriter := func(sig *Signature) (*Signature, error) {
		ep := sig.Endpoints[1]
		ep.InClusters = append(ep.InClusters, 0x0000)
		sig.Endpoints[1] = ep
		return sig, nil
	}

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus, WithSignatureRewriter(rewriter))
	d.ScheduleInitialize(context.Background())

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if _, ok := e.(events.DeviceInitializedEvent); ok {
				ep := d.Endpoints[1]
				if ep == nil {
					t.Fatal("expected endpoint 1 to be populated")
				}
				if _, ok := ep.Input[0x0000]; !ok {
					t.Fatal("expected rewriter-added Basic cluster to be present")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for device_initialized event")
		}
	}
}

func TestSignatureRewriterErrorFallsBackToReportedSignature(t *testing.T) {
	zdo := &fakeZDO{
		endpoints: []types.EndpointID{1},
		descs: map[types.EndpointID]SimpleDescriptor{
			1: {ProfileID: 0x0104, InClusters: []types.ClusterID{0x0006}},
		},
		descErr: map[types.EndpointID]error{},
	}
	bus := events.NewEventBus()
	ch := make(chan events.Event, 4)
	bus.Subscribe(func(e events.Event) { ch <- e })

	rewriter := func(sig *Signature) (*Signature, error) {
		return nil, errors.New("quirks layer exploded")
	}

	d := New(testIEEE(), 0x1234, onOffRegistry(), nil, zdo, bus, WithSignatureRewriter(rewriter))
	d.ScheduleInitialize(context.Background())

	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if _, ok := e.(events.DeviceInitializedEvent); ok {
				ep := d.Endpoints[1]
				if ep == nil {
					t.Fatal("expected endpoint 1 to be populated from the reported signature")
				}
				if _, ok := ep.Input[0x0006]; !ok {
					t.Fatal("expected reported OnOff cluster to survive a failed rewrite")
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for device_initialized event")
		}
	}
}
