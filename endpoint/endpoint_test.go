package endpoint

import (
	"context"
	"testing"

	"github.com/tj-smith47/zigbee-core/cluster"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

type fakeSender struct{ tsn uint8 }

func (f *fakeSender) NextTSN() uint8 { f.tsn++; return f.tsn }
func (f *fakeSender) Send(ctx context.Context, ep types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, await bool) (zcl.Header, []byte, error) {
	return header, nil, nil
}

func onOffRegistry() *cluster.Registry {
	reg := cluster.NewRegistry()
	reg.Register(cluster.NewDefinition(0x0006, "OnOff",
		[]cluster.AttributeSchema{{ID: 0x0000, Name: "on_off", Type: zcl.TypeBool}},
		[]cluster.CommandSchema{{ID: 0x00, Name: "off"}, {ID: 0x01, Name: "on"}},
		nil,
	))
	return reg
}

func TestNewRejectsZDOEndpoint(t *testing.T) {
	_, err := New(types.IEEEAddress{}, types.EndpointZDO, onOffRegistry(), &fakeSender{}, nil)
	if err == nil {
		t.Fatal("expected ErrZDOEndpoint")
	}
}

func TestDispatchReportAttributesWritesThrough(t *testing.T) {
	reg := onOffRegistry()
	bus := events.NewEventBus()
	defer bus.Close()
	ep, err := New(types.IEEEAddress{}, 1, reg, &fakeSender{}, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ep.AddInputCluster(0x0006, nil)

	header := zcl.Header{FrameType: zcl.FrameTypeGeneral, Direction: zcl.DirectionServerToClient, CommandID: zcl.CommandReportAttributes, TSN: 3}
	payload := zcl.SerializeAttribute(zcl.Attribute{AttributeID: 0x0000, Value: zcl.NewAttributeValue(zcl.TypeBool, true)})
	frame := append(zcl.SerializeHeader(header), payload...)

	result, err := ep.Dispatch(0x0006, frame)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Cluster == nil {
		t.Fatal("expected a resolved cluster")
	}
	if v, ok := result.Cluster.Cached(0x0000); !ok || v.Value != true {
		t.Error("report-attributes should write through to the cluster cache")
	}
	if result.DefaultResponse == nil || !result.DefaultResponse.Status.IsSuccess() {
		t.Error("expected a success default response")
	}
}

func TestDispatchUnknownClusterEmitsEvent(t *testing.T) {
	reg := onOffRegistry()
	bus := events.NewEventBus()
	defer bus.Close()
	var gotUnknown bool
	bus.Subscribe(func(e events.Event) {
		if _, ok := e.(events.UnknownClusterMessageEvent); ok {
			gotUnknown = true
		}
	})
	ep, err := New(types.IEEEAddress{}, 1, reg, &fakeSender{}, bus)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	header := zcl.Header{FrameType: zcl.FrameTypeGeneral, Direction: zcl.DirectionServerToClient, CommandID: 0x00, TSN: 5}
	frame := zcl.SerializeHeader(header)

	result, err := ep.Dispatch(0x9999, frame)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !gotUnknown {
		t.Error("expected unknown_cluster_message to be emitted")
	}
	if result.DefaultResponse == nil || result.DefaultResponse.Status.IsSuccess() {
		t.Error("expected a non-success default response for an unregistered cluster")
	}
}

func TestGroupMembership(t *testing.T) {
	ep, err := New(types.IEEEAddress{}, 1, onOffRegistry(), &fakeSender{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ep.JoinGroup(0x1234)
	if !ep.InGroup(0x1234) {
		t.Fatal("expected membership after JoinGroup")
	}
	ep.LeaveGroup(0x1234)
	if ep.InGroup(0x1234) {
		t.Fatal("expected no membership after LeaveGroup")
	}
}
