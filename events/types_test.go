package events

import (
	"errors"
	"testing"
	"time"

	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

func TestNewDeviceJoinedEvent(t *testing.T) {
	ieee, nwk := ieeeOf(1), types.NWKAddress(0x1234)
	e := NewDeviceJoinedEvent(ieee, nwk)

	if e.Type() != EventTypeDeviceJoined {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeDeviceJoined)
	}
	if e.IEEE != ieee || e.NWK != nwk {
		t.Errorf("unexpected fields: %+v", e)
	}
	if e.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
}

func TestNewDeviceLeftEvent(t *testing.T) {
	ieee := ieeeOf(2)
	e := NewDeviceLeftEvent(ieee)

	if e.Type() != EventTypeDeviceLeft {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeDeviceLeft)
	}
	if e.IEEE != ieee {
		t.Errorf("IEEE = %v, want %v", e.IEEE, ieee)
	}
}

func TestNewDeviceInitializedEvent(t *testing.T) {
	ieee := ieeeOf(3)
	e := NewDeviceInitializedEvent(ieee)

	if e.Type() != EventTypeDeviceInitialized {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeDeviceInitialized)
	}
	if e.IEEE != ieee {
		t.Errorf("IEEE = %v, want %v", e.IEEE, ieee)
	}
}

func TestNewDeviceInitFailureEvent(t *testing.T) {
	ieee := ieeeOf(4)
	wantErr := errors.New("boom")
	e := NewDeviceInitFailureEvent(ieee, wantErr)

	if e.Type() != EventTypeDeviceInitFailure {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeDeviceInitFailure)
	}
	if e.IEEE != ieee {
		t.Errorf("IEEE = %v, want %v", e.IEEE, ieee)
	}
	if !errors.Is(e.Err, wantErr) {
		t.Errorf("Err = %v, want %v", e.Err, wantErr)
	}
}

func TestNewDeviceRemovedEvent(t *testing.T) {
	ieee := ieeeOf(5)
	e := NewDeviceRemovedEvent(ieee)

	if e.Type() != EventTypeDeviceRemoved {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeDeviceRemoved)
	}
	if e.IEEE != ieee {
		t.Errorf("IEEE = %v, want %v", e.IEEE, ieee)
	}
}

func TestNewAttributeUpdatedEvent(t *testing.T) {
	ieee := ieeeOf(6)
	value := zcl.NewAttributeValue(zcl.TypeBool, true)
	e := NewAttributeUpdatedEvent(ieee, 1, 0x0006, 0x0000, value)

	if e.Type() != EventTypeAttributeUpdated {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeAttributeUpdated)
	}
	if e.IEEE != ieee || e.Endpoint != 1 || e.ClusterID != 0x0006 || e.AttributeID != 0x0000 {
		t.Errorf("unexpected fields: %+v", e)
	}
	if got, ok := e.Value.Value.(bool); !ok || !got {
		t.Errorf("Value = %+v, want bool true", e.Value)
	}
}

func TestNewUnknownClusterMessageEvent(t *testing.T) {
	ieee := ieeeOf(7)
	e := NewUnknownClusterMessageEvent(ieee, 1, 0xFFF0, 42)

	if e.Type() != EventTypeUnknownClusterMessage {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeUnknownClusterMessage)
	}
	if e.IEEE != ieee || e.Endpoint != 1 || e.ClusterID != 0xFFF0 || e.TSN != 42 {
		t.Errorf("unexpected fields: %+v", e)
	}
}

func TestNewNetworkBackupCreatedEvent(t *testing.T) {
	now := time.Now()
	e := NewNetworkBackupCreatedEvent(now)

	if e.Type() != EventTypeNetworkBackupCreated {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeNetworkBackupCreated)
	}
	if !e.BackupTime.Equal(now) {
		t.Errorf("BackupTime = %v, want %v", e.BackupTime, now)
	}
}

func TestNewNetworkBackupRemovedEvent(t *testing.T) {
	now := time.Now()
	e := NewNetworkBackupRemovedEvent(now)

	if e.Type() != EventTypeNetworkBackupRemoved {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeNetworkBackupRemoved)
	}
	if !e.BackupTime.Equal(now) {
		t.Errorf("BackupTime = %v, want %v", e.BackupTime, now)
	}
}

func TestNewGroupAddedEvent(t *testing.T) {
	e := NewGroupAddedEvent(0x0042)

	if e.Type() != EventTypeGroupAdded {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeGroupAdded)
	}
	if e.GroupID != 0x0042 {
		t.Errorf("GroupID = %v, want 0x0042", e.GroupID)
	}
}

func TestNewGroupRemovedEvent(t *testing.T) {
	e := NewGroupRemovedEvent(0x0043)

	if e.Type() != EventTypeGroupRemoved {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeGroupRemoved)
	}
	if e.GroupID != 0x0043 {
		t.Errorf("GroupID = %v, want 0x0043", e.GroupID)
	}
}

func TestNewGroupMemberAddedEvent(t *testing.T) {
	ieee := ieeeOf(8)
	e := NewGroupMemberAddedEvent(0x0044, ieee, 1)

	if e.Type() != EventTypeGroupMemberAdded {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeGroupMemberAdded)
	}
	if e.GroupID != 0x0044 || e.IEEE != ieee || e.Endpoint != 1 {
		t.Errorf("unexpected fields: %+v", e)
	}
}

func TestNewGroupMemberRemovedEvent(t *testing.T) {
	ieee := ieeeOf(9)
	e := NewGroupMemberRemovedEvent(0x0045, ieee, 2)

	if e.Type() != EventTypeGroupMemberRemoved {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypeGroupMemberRemoved)
	}
	if e.GroupID != 0x0045 || e.IEEE != ieee || e.Endpoint != 2 {
		t.Errorf("unexpected fields: %+v", e)
	}
}

func TestNewPermitJoinChangedEvent(t *testing.T) {
	e := NewPermitJoinChangedEvent(30 * time.Second)

	if e.Type() != EventTypePermitJoinChanged {
		t.Errorf("Type() = %v, want %v", e.Type(), EventTypePermitJoinChanged)
	}
	if e.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want 30s", e.Duration)
	}
}
