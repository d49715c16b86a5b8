package group

import "github.com/tj-smith47/zigbee-core/types"

// Member identifies one endpoint's place in a group: the same (ieee,
// endpoint id) key the device table itself addresses endpoints by.
type Member struct {
	IEEE     types.IEEEAddress
	Endpoint types.EndpointID
}

// Group is a named multicast address and the set of endpoints that belong
// to it. Membership here is one half of a bidirectional invariant: the
// other half is each member endpoint's own Groups set
// (endpoint.Endpoint.JoinGroup/LeaveGroup). Manager keeps both sides in
// sync; a Group should never be mutated directly.
type Group struct {
	ID      types.GroupID
	Name    string
	Members map[Member]struct{}
}

func newGroup(id types.GroupID, name string) *Group {
	return &Group{ID: id, Name: name, Members: make(map[Member]struct{})}
}

// HasMember reports whether m belongs to g.
func (g *Group) HasMember(m Member) bool {
	_, ok := g.Members[m]
	return ok
}

// MemberList returns g's members in no particular order.
func (g *Group) MemberList() []Member {
	out := make([]Member, 0, len(g.Members))
	for m := range g.Members {
		out = append(out, m)
	}
	return out
}
