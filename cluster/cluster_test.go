package cluster

import (
	"context"
	"testing"

	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// fakeSender hands back a scripted response for the next Send call and
// records the last outbound frame, standing in for the device/request
// correlation layer a cluster depends on.
type fakeSender struct {
	tsn          uint8
	lastEndpoint types.EndpointID
	lastCluster  types.ClusterID
	lastHeader   zcl.Header
	lastPayload  []byte
	response     []byte
	err          error
}

func (f *fakeSender) NextTSN() uint8 {
	f.tsn++
	return f.tsn
}

func (f *fakeSender) Send(ctx context.Context, ep types.EndpointID, clusterID types.ClusterID, header zcl.Header, payload []byte, awaitReply bool) (zcl.Header, []byte, error) {
	f.lastEndpoint = ep
	f.lastCluster = clusterID
	f.lastHeader = header
	f.lastPayload = payload
	if f.err != nil {
		return zcl.Header{}, nil, f.err
	}
	return header, f.response, nil
}

func onOffDefinition() *Definition {
	return NewDefinition(0x0006, "OnOff",
		[]AttributeSchema{
			{ID: 0x0000, Name: "on_off", Type: zcl.TypeBool},
		},
		[]CommandSchema{
			{ID: 0x00, Name: "off"},
			{ID: 0x01, Name: "on"},
			{ID: 0x02, Name: "toggle"},
		},
		nil,
	)
}

func TestReadAttributesConstantOverlayShortCircuits(t *testing.T) {
	sender := &fakeSender{}
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, nil, map[types.AttributeID]zcl.AttributeValue{
		0x0000: zcl.NewAttributeValue(zcl.TypeBool, true),
	})

	successes, failures, err := c.ReadAttributes(context.Background(), []types.AttributeID{0x0000}, true)
	if err != nil {
		t.Fatalf("ReadAttributes: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if v, ok := successes[0x0000]; !ok || v.Value != true {
		t.Fatalf("successes[0x0000] = %v, want true", v)
	}
	if sender.lastPayload != nil {
		t.Error("constant overlay hit should never touch the wire")
	}
}

func TestReadAttributesCacheHit(t *testing.T) {
	sender := &fakeSender{}
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, nil, nil)
	c.cache[0x0000] = zcl.NewAttributeValue(zcl.TypeBool, false)

	successes, _, err := c.ReadAttributes(context.Background(), []types.AttributeID{0x0000}, true)
	if err != nil {
		t.Fatalf("ReadAttributes: %v", err)
	}
	if v := successes[0x0000]; v.Value != false {
		t.Fatalf("successes[0x0000] = %v, want false", v)
	}
	if sender.lastPayload != nil {
		t.Error("cache hit should never touch the wire")
	}
}

func TestReadAttributesWiresOutMissingEntries(t *testing.T) {
	sender := &fakeSender{
		response: zcl.SerializeReadAttributeRecord(zcl.ReadAttributeRecord{
			AttributeID: 0x0000,
			Status:      types.NewStatus(types.StatusSuccess),
			Value:       zcl.NewAttributeValue(zcl.TypeBool, true),
		}),
	}
	bus := events.NewEventBus()
	defer bus.Close()
	var gotEvent bool
	bus.Subscribe(func(e events.Event) {
		if _, ok := e.(events.AttributeUpdatedEvent); ok {
			gotEvent = true
		}
	})

	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, bus, nil)
	successes, failures, err := c.ReadAttributes(context.Background(), []types.AttributeID{0x0000}, true)
	if err != nil {
		t.Fatalf("ReadAttributes: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if successes[0x0000].Value != true {
		t.Fatalf("successes[0x0000] = %v, want true", successes[0x0000])
	}
	if v, ok := c.cache[0x0000]; !ok || v.Value != true {
		t.Error("successful read should write through to the cache")
	}
	if !gotEvent {
		t.Error("successful read should emit attribute_updated")
	}
}

func TestWriteAttributesFailurePreservesCache(t *testing.T) {
	failRecord := zcl.SerializeWriteAttributesStatusRecord(zcl.WriteAttributesStatusRecord{
		Status:      types.NewStatus(types.StatusReadOnly),
		AttributeID: 0x0000,
	})
	sender := &fakeSender{response: failRecord}
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, nil, nil)
	c.cache[0x0000] = zcl.NewAttributeValue(zcl.TypeBool, false)

	failures, err := c.WriteAttributes(context.Background(), []zcl.Attribute{
		{AttributeID: 0x0000, Value: zcl.NewAttributeValue(zcl.TypeBool, true)},
	})
	if err != nil {
		t.Fatalf("WriteAttributes: %v", err)
	}
	if _, failed := failures[0x0000]; !failed {
		t.Fatal("expected a failure for attribute 0x0000")
	}
	if v := c.cache[0x0000]; v.Value != false {
		t.Errorf("failed write should preserve prior cache entry, got %v", v.Value)
	}
}

func TestWriteAttributesSuccessWritesThrough(t *testing.T) {
	sender := &fakeSender{response: nil}
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, nil, nil)

	failures, err := c.WriteAttributes(context.Background(), []zcl.Attribute{
		{AttributeID: 0x0000, Value: zcl.NewAttributeValue(zcl.TypeBool, true)},
	})
	if err != nil {
		t.Fatalf("WriteAttributes: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if v := c.cache[0x0000]; v.Value != true {
		t.Errorf("cache[0x0000] = %v, want true", v.Value)
	}
}

func TestConfigureReportingRejectsUnknownAttribute(t *testing.T) {
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, &fakeSender{}, nil, nil)
	_, err := c.ConfigureReporting(context.Background(), []zcl.ReportingConfig{
		{AttributeID: 0x00FF},
	})
	if err == nil {
		t.Fatal("expected an error for an unknown attribute id")
	}
}

func TestHandleReportAttributesWritesThroughAndDefaultResponds(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Close()
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, &fakeSender{}, bus, nil)

	payload := zcl.SerializeAttribute(zcl.Attribute{
		AttributeID: 0x0000,
		Value:       zcl.NewAttributeValue(zcl.TypeBool, true),
	})
	resp, err := c.HandleReportAttributes(zcl.Header{CommandID: zcl.CommandReportAttributes, TSN: 7}, payload)
	if err != nil {
		t.Fatalf("HandleReportAttributes: %v", err)
	}
	if resp == nil {
		t.Fatal("expected a default response when disable_default_response is clear")
	}
	if !resp.Status.IsSuccess() {
		t.Errorf("default response status = %v, want success", resp.Status)
	}
	if v := c.cache[0x0000]; v.Value != true {
		t.Error("report should write through to the cache")
	}
}

func TestHandleReportAttributesSuppressesDefaultResponse(t *testing.T) {
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, &fakeSender{}, nil, nil)
	payload := zcl.SerializeAttribute(zcl.Attribute{
		AttributeID: 0x0000,
		Value:       zcl.NewAttributeValue(zcl.TypeBool, true),
	})
	resp, err := c.HandleReportAttributes(zcl.Header{DisableDefaultResponse: true}, payload)
	if err != nil {
		t.Fatalf("HandleReportAttributes: %v", err)
	}
	if resp != nil {
		t.Error("disable_default_response set should suppress the default response")
	}
}

func TestHandleUnknownEmitsEvent(t *testing.T) {
	bus := events.NewEventBus()
	defer bus.Close()
	var got events.UnknownClusterMessageEvent
	bus.Subscribe(func(e events.Event) {
		if u, ok := e.(events.UnknownClusterMessageEvent); ok {
			got = u
		}
	})

	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, &fakeSender{}, bus, nil)
	resp := c.HandleUnknown(zcl.Header{CommandID: 0x42, TSN: 9})

	if got.TSN != 9 {
		t.Errorf("event TSN = %v, want 9", got.TSN)
	}
	if resp == nil || resp.Status.IsSuccess() {
		t.Error("expected a non-success default response")
	}
}

func TestInvokeCommandUnknownCommand(t *testing.T) {
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, &fakeSender{}, nil, nil)
	_, _, err := c.InvokeCommand(context.Background(), 0xEE, nil, false)
	if err == nil {
		t.Fatal("expected an error for an unregistered command id")
	}
}

func TestInvokeCommandSendsRegisteredCommand(t *testing.T) {
	sender := &fakeSender{}
	c := New(types.IEEEAddress{}, 1, onOffDefinition(), types.ClusterRoleServer, sender, nil, nil)
	_, _, err := c.InvokeCommand(context.Background(), 0x01, nil, false)
	if err != nil {
		t.Fatalf("InvokeCommand: %v", err)
	}
	if sender.lastHeader.CommandID != 0x01 {
		t.Errorf("lastHeader.CommandID = %v, want 0x01", sender.lastHeader.CommandID)
	}
	if sender.lastHeader.FrameType != zcl.FrameTypeClusterSpecific {
		t.Error("cluster-specific command should set FrameTypeClusterSpecific")
	}
}
