package events

import (
	"time"

	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// EventType identifies the kind of event flowing out of the core. The
// storage collaborator subscribes to the Bus and is responsible for any
// durability; the core itself never persists anything.
type EventType string

const (
	EventTypeDeviceJoined          EventType = "device_joined"
	EventTypeDeviceLeft            EventType = "device_left"
	EventTypeDeviceInitialized     EventType = "device_initialized"
	EventTypeDeviceInitFailure     EventType = "device_init_failure"
	EventTypeDeviceRemoved         EventType = "device_removed"
	EventTypeAttributeUpdated      EventType = "attribute_updated"
	EventTypeUnknownClusterMessage EventType = "unknown_cluster_message"
	EventTypeNetworkBackupCreated  EventType = "network_backup_created"
	EventTypeNetworkBackupRemoved  EventType = "network_backup_removed"
	EventTypeGroupAdded            EventType = "group_added"
	EventTypeGroupRemoved          EventType = "group_removed"
	EventTypeGroupMemberAdded      EventType = "group_member_added"
	EventTypeGroupMemberRemoved    EventType = "group_member_removed"
	EventTypePermitJoinChanged     EventType = "permit_join_changed"
)

// Event is the interface every event type implements.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// base carries the fields every event needs.
type base struct {
	eventType EventType
	timestamp time.Time
}

func newBase(t EventType) base { return base{eventType: t, timestamp: time.Now()} }

func (b base) Type() EventType      { return b.eventType }
func (b base) Timestamp() time.Time { return b.timestamp }

// DeviceJoinedEvent fires when handle_join creates a device or discovers it
// under a new NWK address (handle_join cases a and c).
type DeviceJoinedEvent struct {
	base
	IEEE types.IEEEAddress
	NWK  types.NWKAddress
}

func NewDeviceJoinedEvent(ieee types.IEEEAddress, nwk types.NWKAddress) DeviceJoinedEvent {
	return DeviceJoinedEvent{base: newBase(EventTypeDeviceJoined), IEEE: ieee, NWK: nwk}
}

// DeviceLeftEvent fires when a device leaves the network.
type DeviceLeftEvent struct {
	base
	IEEE types.IEEEAddress
}

func NewDeviceLeftEvent(ieee types.IEEEAddress) DeviceLeftEvent {
	return DeviceLeftEvent{base: newBase(EventTypeDeviceLeft), IEEE: ieee}
}

// DeviceInitializedEvent fires when the init state machine reaches
// ENDPOINTS_INIT.
type DeviceInitializedEvent struct {
	base
	IEEE types.IEEEAddress
}

func NewDeviceInitializedEvent(ieee types.IEEEAddress) DeviceInitializedEvent {
	return DeviceInitializedEvent{base: newBase(EventTypeDeviceInitialized), IEEE: ieee}
}

// DeviceInitFailureEvent fires when the init state machine aborts with an
// unhandled error; the device's status is left unchanged.
type DeviceInitFailureEvent struct {
	base
	IEEE types.IEEEAddress
	Err  error
}

func NewDeviceInitFailureEvent(ieee types.IEEEAddress, err error) DeviceInitFailureEvent {
	return DeviceInitFailureEvent{base: newBase(EventTypeDeviceInitFailure), IEEE: ieee, Err: err}
}

// DeviceRemovedEvent fires on explicit remove or a failed leave-timeout
// path.
type DeviceRemovedEvent struct {
	base
	IEEE types.IEEEAddress
}

func NewDeviceRemovedEvent(ieee types.IEEEAddress) DeviceRemovedEvent {
	return DeviceRemovedEvent{base: newBase(EventTypeDeviceRemoved), IEEE: ieee}
}

// AttributeUpdatedEvent fires whenever a cluster's attribute cache is
// written through, whether by an inbound report or a successful read.
type AttributeUpdatedEvent struct {
	base
	IEEE        types.IEEEAddress
	Endpoint    types.EndpointID
	ClusterID   types.ClusterID
	AttributeID types.AttributeID
	Value       zcl.AttributeValue
}

func NewAttributeUpdatedEvent(ieee types.IEEEAddress, ep types.EndpointID, cluster types.ClusterID, attr types.AttributeID, value zcl.AttributeValue) AttributeUpdatedEvent {
	return AttributeUpdatedEvent{
		base:        newBase(EventTypeAttributeUpdated),
		IEEE:        ieee,
		Endpoint:    ep,
		ClusterID:   cluster,
		AttributeID: attr,
		Value:       value,
	}
}

// UnknownClusterMessageEvent fires when a frame arrives for a cluster id
// the registry has no definition for.
type UnknownClusterMessageEvent struct {
	base
	IEEE      types.IEEEAddress
	Endpoint  types.EndpointID
	ClusterID types.ClusterID
	TSN       uint8
}

func NewUnknownClusterMessageEvent(ieee types.IEEEAddress, ep types.EndpointID, cluster types.ClusterID, tsn uint8) UnknownClusterMessageEvent {
	return UnknownClusterMessageEvent{
		base:      newBase(EventTypeUnknownClusterMessage),
		IEEE:      ieee,
		Endpoint:  ep,
		ClusterID: cluster,
		TSN:       tsn,
	}
}

// NetworkBackupCreatedEvent fires when a new backup is retained by
// add_backup.
type NetworkBackupCreatedEvent struct {
	base
	BackupTime time.Time
}

func NewNetworkBackupCreatedEvent(backupTime time.Time) NetworkBackupCreatedEvent {
	return NetworkBackupCreatedEvent{base: newBase(EventTypeNetworkBackupCreated), BackupTime: backupTime}
}

// NetworkBackupRemovedEvent fires when add_backup evicts a superseded
// backup.
type NetworkBackupRemovedEvent struct {
	base
	BackupTime time.Time
}

func NewNetworkBackupRemovedEvent(backupTime time.Time) NetworkBackupRemovedEvent {
	return NetworkBackupRemovedEvent{base: newBase(EventTypeNetworkBackupRemoved), BackupTime: backupTime}
}

// GroupAddedEvent / GroupRemovedEvent / GroupMemberAddedEvent /
// GroupMemberRemovedEvent mirror group membership mutations.
type GroupAddedEvent struct {
	base
	GroupID types.GroupID
}

func NewGroupAddedEvent(id types.GroupID) GroupAddedEvent {
	return GroupAddedEvent{base: newBase(EventTypeGroupAdded), GroupID: id}
}

type GroupRemovedEvent struct {
	base
	GroupID types.GroupID
}

func NewGroupRemovedEvent(id types.GroupID) GroupRemovedEvent {
	return GroupRemovedEvent{base: newBase(EventTypeGroupRemoved), GroupID: id}
}

type GroupMemberAddedEvent struct {
	base
	GroupID  types.GroupID
	IEEE     types.IEEEAddress
	Endpoint types.EndpointID
}

func NewGroupMemberAddedEvent(id types.GroupID, ieee types.IEEEAddress, ep types.EndpointID) GroupMemberAddedEvent {
	return GroupMemberAddedEvent{base: newBase(EventTypeGroupMemberAdded), GroupID: id, IEEE: ieee, Endpoint: ep}
}

type GroupMemberRemovedEvent struct {
	base
	GroupID  types.GroupID
	IEEE     types.IEEEAddress
	Endpoint types.EndpointID
}

func NewGroupMemberRemovedEvent(id types.GroupID, ieee types.IEEEAddress, ep types.EndpointID) GroupMemberRemovedEvent {
	return GroupMemberRemovedEvent{base: newBase(EventTypeGroupMemberRemoved), GroupID: id, IEEE: ieee, Endpoint: ep}
}

// PermitJoinChangedEvent fires when an inbound Mgmt_Permit_Joining_req is
// observed, or when the controller issues one itself.
type PermitJoinChangedEvent struct {
	base
	Duration time.Duration
}

func NewPermitJoinChangedEvent(d time.Duration) PermitJoinChangedEvent {
	return PermitJoinChangedEvent{base: newBase(EventTypePermitJoinChanged), Duration: d}
}
