package events

import "github.com/tj-smith47/zigbee-core/types"

// Filter is a function that determines if an event should be processed.
type Filter func(Event) bool

// WithEventType creates a filter that matches events of a specific type.
func WithEventType(eventType EventType) Filter {
	return func(e Event) bool {
		return e.Type() == eventType
	}
}

// WithEventTypes creates a filter that matches events of any of the
// specified types.
func WithEventTypes(eventTypes ...EventType) Filter {
	typeSet := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		typeSet[t] = true
	}
	return func(e Event) bool {
		return typeSet[e.Type()]
	}
}

// deviceIEEE extracts the IEEE address carried by event types that are
// scoped to a single device. Events with no device scope (backups, groups)
// return false.
func deviceIEEE(e Event) (types.IEEEAddress, bool) {
	switch evt := e.(type) {
	case DeviceJoinedEvent:
		return evt.IEEE, true
	case DeviceLeftEvent:
		return evt.IEEE, true
	case DeviceInitializedEvent:
		return evt.IEEE, true
	case DeviceInitFailureEvent:
		return evt.IEEE, true
	case DeviceRemovedEvent:
		return evt.IEEE, true
	case AttributeUpdatedEvent:
		return evt.IEEE, true
	case UnknownClusterMessageEvent:
		return evt.IEEE, true
	default:
		return types.IEEEAddress{}, false
	}
}

// WithDevice creates a filter that matches events scoped to one device.
func WithDevice(ieee types.IEEEAddress) Filter {
	return func(e Event) bool {
		got, ok := deviceIEEE(e)
		return ok && got == ieee
	}
}

// WithCluster creates a filter that matches AttributeUpdatedEvent and
// UnknownClusterMessageEvent for a specific cluster id.
func WithCluster(id types.ClusterID) Filter {
	return func(e Event) bool {
		switch evt := e.(type) {
		case AttributeUpdatedEvent:
			return evt.ClusterID == id
		case UnknownClusterMessageEvent:
			return evt.ClusterID == id
		default:
			return false
		}
	}
}

// And combines multiple filters with AND logic.
func And(filters ...Filter) Filter {
	return func(e Event) bool {
		for _, f := range filters {
			if !f(e) {
				return false
			}
		}
		return true
	}
}

// Or combines multiple filters with OR logic.
func Or(filters ...Filter) Filter {
	return func(e Event) bool {
		for _, f := range filters {
			if f(e) {
				return true
			}
		}
		return false
	}
}

// Not negates a filter.
func Not(filter Filter) Filter {
	return func(e Event) bool {
		return !filter(e)
	}
}
