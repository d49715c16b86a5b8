package controller

import (
	"context"

	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/types"
)

// SetZDOClient installs the ZDO client every newly-created device is
// handed for its init state machine (ActiveEndpoints/SimpleDescriptor).
// Set once during wiring, before the radio starts delivering Device_annce
// packets.
func (c *Controller) SetZDOClient(client device.ZDOClient) {
	c.mu.Lock()
	c.zdoClient = client
	c.mu.Unlock()
}

// HandleJoin implements the rejoin semantics: case (a) a
// never-seen IEEE creates a device and schedules initialization; case (b)
// a known IEEE rejoining under its existing NWK address before
// initialization finished just reschedules initialize, emitting no join
// event; case (c) a known IEEE rejoining under a new NWK address updates
// the index, emits device_joined, and reschedules initialize; case (d) a
// known, already-initialized IEEE rejoining under its existing address is
// a no-op here besides the group-membership re-scan the group component
// owns. The supplemented case (e) handles the announced NWK address
// already being held by a different IEEE: the stale entry is evicted
// before the new one takes the slot, since two devices can never share a
// short address in the table.
func (c *Controller) HandleJoin(ctx context.Context, nwk types.NWKAddress, ieee types.IEEEAddress, parentNWK types.NWKAddress) {
	c.mu.Lock()

	var evictedIEEE types.IEEEAddress
	evicted := false
	if stale, conflict := c.byNWK[nwk]; conflict && stale.IEEE != ieee {
		delete(c.byNWK, nwk)
		delete(c.byIEEE, stale.IEEE)
		evictedIEEE = stale.IEEE
		evicted = true
		c.log.Warn().Err(ErrNWKAddressConflict).Str("nwk", nwk.String()).Msg("evicting stale entry")
	}

	dev, known := c.byIEEE[ieee]

	switch {
	case !known:
		ds := &deviceSender{ctrl: c}
		dev = device.New(ieee, nwk, c.registry, ds, c.zdoClient, c.bus)
		ds.dev = dev
		c.byIEEE[ieee] = dev
		c.byNWK[nwk] = dev
		c.mu.Unlock()

		c.publishEviction(evicted, evictedIEEE)
		if c.bus != nil {
			c.bus.Publish(events.NewDeviceJoinedEvent(ieee, nwk))
		}
		dev.ScheduleInitialize(ctx)

	case dev.NWK() == nwk:
		stillInitializing := dev.Status() != device.StatusEndpointsInit
		c.mu.Unlock()

		c.publishEviction(evicted, evictedIEEE)
		if stillInitializing {
			dev.ScheduleInitialize(ctx) // case (b): no join event.
		}
		// case (d): already initialized under the same address; nothing
		// to do beyond a group-membership re-scan.

	default:
		delete(c.byNWK, dev.NWK())
		dev.UpdateNWK(nwk)
		c.byNWK[nwk] = dev
		c.mu.Unlock()

		c.publishEviction(evicted, evictedIEEE)
		if c.bus != nil {
			c.bus.Publish(events.NewDeviceJoinedEvent(ieee, nwk))
		}
		dev.ScheduleInitialize(ctx) // case (c)
	}
}

func (c *Controller) publishEviction(evicted bool, ieee types.IEEEAddress) {
	if evicted && c.bus != nil {
		c.bus.Publish(events.NewDeviceRemovedEvent(ieee))
	}
}
