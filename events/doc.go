// Package events provides a typed event system for the core's lifecycle
// and traffic notifications.
//
// The events package implements a publish-subscribe pattern for
// everything the core reports about its device table, the wire, backups,
// and groups — the storage/automation collaborator downstream subscribes
// to the Bus and owns any durability; the core itself never persists
// anything it publishes.
//
// # Event Bus
//
// The EventBus is the central hub for event distribution:
//
//	bus := events.NewEventBus()
//	defer bus.Close()
//
//	// Subscribe to all events
//	bus.Subscribe(func(e events.Event) {
//	    fmt.Printf("Event: %s at %s\n", e.Type(), e.Timestamp())
//	})
//
//	// Publish an event
//	bus.Publish(events.NewDeviceJoinedEvent(ieee, nwk))
//
// # Event Types
//
// The package defines typed events for the object graph's lifecycle and
// the traffic that flows through it:
//
//   - DeviceJoinedEvent / DeviceLeftEvent / DeviceRemovedEvent
//   - DeviceInitializedEvent / DeviceInitFailureEvent
//   - AttributeUpdatedEvent: a cluster's attribute cache was written through
//   - UnknownClusterMessageEvent: a frame arrived for an unregistered cluster
//   - NetworkBackupCreatedEvent / NetworkBackupRemovedEvent
//   - GroupAddedEvent / GroupRemovedEvent / GroupMemberAddedEvent / GroupMemberRemovedEvent
//   - PermitJoinChangedEvent
//
// Each event type provides typed access to its own fields:
//
//	bus.Subscribe(func(e events.Event) {
//	    if joined, ok := e.(events.DeviceJoinedEvent); ok {
//	        fmt.Printf("device joined: %s at %s\n", joined.IEEE, joined.NWK)
//	    }
//	})
//
// # Filtered Subscriptions
//
// Use filters to receive only relevant events:
//
//	// Only events for one device
//	bus.SubscribeFiltered(
//	    events.WithDevice(ieee),
//	    func(e events.Event) {
//	        // Handle events scoped to this device
//	    },
//	)
//
//	// Only attribute updates for a specific cluster
//	bus.SubscribeFiltered(
//	    events.WithCluster(0x0006),
//	    func(e events.Event) {
//	        // Handle on_off cluster traffic
//	    },
//	)
//
//	// Combine filters
//	bus.SubscribeFiltered(
//	    events.And(
//	        events.WithDevice(ieee),
//	        events.WithEventType(events.EventTypeAttributeUpdated),
//	    ),
//	    func(e events.Event) {
//	        // Handle specific events
//	    },
//	)
//
// # Thread Safety
//
// The EventBus is fully thread-safe. Subscribers are invoked synchronously
// in the order they were registered. PublishAsync fans a single event out
// to every matching subscriber concurrently and waits for them all before
// returning.
//
// # Best Practices
//
//   - Close the EventBus when done to release resources
//   - Use filters to reduce unnecessary handler invocations
//   - Keep handlers fast; offload heavy processing to goroutines
package events
