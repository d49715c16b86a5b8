package group

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tj-smith47/zigbee-core/device"
	"github.com/tj-smith47/zigbee-core/events"
	"github.com/tj-smith47/zigbee-core/internal/logging"
	"github.com/tj-smith47/zigbee-core/types"
)

// DeviceProvider is the device-table lookup Manager needs to reach a
// member's endpoint. Satisfied structurally by *controller.Controller.
type DeviceProvider interface {
	DeviceByIEEE(ieee types.IEEEAddress) (*device.Device, bool)
}

// Manager owns the group table and the bidirectional membership invariant
// between each Group and its member endpoints.
type Manager struct {
	devices DeviceProvider
	bus     *events.EventBus
	log     zerolog.Logger

	mu     sync.Mutex
	groups map[types.GroupID]*Group
}

// NewManager binds a Manager to the device table it resolves members
// against and the event bus it reports membership mutations on. bus may be
// nil.
func NewManager(devices DeviceProvider, bus *events.EventBus) *Manager {
	return &Manager{
		devices: devices,
		bus:     bus,
		log:     logging.For("group"),
		groups:  make(map[types.GroupID]*Group),
	}
}

// AddGroup creates a new group with the given name, or returns the
// existing one unchanged if id is already registered.
func (m *Manager) AddGroup(id types.GroupID, name string) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		return g
	}
	g := newGroup(id, name)
	m.groups[id] = g
	m.log.Debug().Uint16("group", uint16(id)).Str("name", name).Msg("group added")
	if m.bus != nil {
		m.bus.PublishAsync(events.NewGroupAddedEvent(id))
	}
	return g
}

// Group returns the registered group by id.
func (m *Manager) Group(id types.GroupID) (*Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	return g, ok
}

// Groups returns every registered group, in no particular order.
func (m *Manager) Groups() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out
}

// RemoveGroup detaches every member from id's group (restoring each
// member endpoint's own Groups invariant) before dropping the group
// itself. Reports false if id was not registered.
func (m *Manager) RemoveGroup(id types.GroupID) bool {
	m.mu.Lock()
	g, ok := m.groups[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	members := g.MemberList()
	delete(m.groups, id)
	m.mu.Unlock()

	for _, mem := range members {
		m.detach(id, mem)
		if m.bus != nil {
			m.bus.PublishAsync(events.NewGroupMemberRemovedEvent(id, mem.IEEE, mem.Endpoint))
		}
	}
	m.log.Debug().Uint16("group", uint16(id)).Msg("group removed")
	if m.bus != nil {
		m.bus.PublishAsync(events.NewGroupRemovedEvent(id))
	}
	return true
}

// AddMember admits (ieee, ep) into group id, creating the group first if it
// doesn't exist yet. A no-op if the endpoint is already a member.
func (m *Manager) AddMember(id types.GroupID, ieee types.IEEEAddress, ep types.EndpointID) error {
	epObj, err := m.resolveEndpoint(ieee, ep)
	if err != nil {
		return err
	}

	g := m.AddGroup(id, "")
	mem := Member{IEEE: ieee, Endpoint: ep}

	m.mu.Lock()
	if g.HasMember(mem) {
		m.mu.Unlock()
		return nil
	}
	g.Members[mem] = struct{}{}
	m.mu.Unlock()

	epObj.JoinGroup(id)
	m.log.Debug().Uint16("group", uint16(id)).Str("ieee", ieee.String()).Uint8("endpoint", uint8(ep)).Msg("group member added")
	if m.bus != nil {
		m.bus.PublishAsync(events.NewGroupMemberAddedEvent(id, ieee, ep))
	}
	return nil
}

// RemoveMember evicts (ieee, ep) from group id. Returns ErrGroupNotFound if
// the group doesn't exist; a no-op if the membership doesn't.
func (m *Manager) RemoveMember(id types.GroupID, ieee types.IEEEAddress, ep types.EndpointID) error {
	m.mu.Lock()
	g, ok := m.groups[id]
	if !ok {
		m.mu.Unlock()
		return ErrGroupNotFound
	}
	mem := Member{IEEE: ieee, Endpoint: ep}
	if !g.HasMember(mem) {
		m.mu.Unlock()
		return nil
	}
	delete(g.Members, mem)
	m.mu.Unlock()

	m.detach(id, mem)
	m.log.Debug().Uint16("group", uint16(id)).Str("ieee", ieee.String()).Uint8("endpoint", uint8(ep)).Msg("group member removed")
	if m.bus != nil {
		m.bus.PublishAsync(events.NewGroupMemberRemovedEvent(id, ieee, ep))
	}
	return nil
}

// SyncMembership reconciles (ieee, ep)'s membership against want, the set
// of group ids the device itself reports belonging to (e.g. via a Groups
// cluster get_group_membership response). Groups the endpoint is currently
// in but want doesn't name are left; groups want names that the endpoint
// isn't in yet are joined, creating them if needed.
func (m *Manager) SyncMembership(ieee types.IEEEAddress, ep types.EndpointID, want map[types.GroupID]struct{}) error {
	mem := Member{IEEE: ieee, Endpoint: ep}

	m.mu.Lock()
	current := make(map[types.GroupID]struct{})
	for id, g := range m.groups {
		if g.HasMember(mem) {
			current[id] = struct{}{}
		}
	}
	m.mu.Unlock()

	for id := range current {
		if _, ok := want[id]; !ok {
			if err := m.RemoveMember(id, ieee, ep); err != nil {
				return err
			}
		}
	}
	for id := range want {
		if _, ok := current[id]; !ok {
			if err := m.AddMember(id, ieee, ep); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) resolveEndpoint(ieee types.IEEEAddress, ep types.EndpointID) (groupEndpoint, error) {
	dev, ok := m.devices.DeviceByIEEE(ieee)
	if !ok {
		return nil, ErrDeviceNotFound
	}
	epObj, ok := dev.Endpoints[ep]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return epObj, nil
}

// detach clears the endpoint side of the membership invariant; a device
// that has since left the network has nothing to detach and is ignored.
func (m *Manager) detach(id types.GroupID, mem Member) {
	epObj, err := m.resolveEndpoint(mem.IEEE, mem.Endpoint)
	if err != nil {
		return
	}
	epObj.LeaveGroup(id)
}

// groupEndpoint is the slice of *endpoint.Endpoint Manager actually needs,
// kept narrow so tests can fake it without constructing a real endpoint.
type groupEndpoint interface {
	JoinGroup(g types.GroupID)
	LeaveGroup(g types.GroupID)
}
