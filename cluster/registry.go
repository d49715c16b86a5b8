package cluster

import (
	"fmt"
	"sort"

	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/zcl"
)

// AttributeSchema describes one registered attribute: its id, name and
// wire type.
type AttributeSchema struct {
	ID   types.AttributeID
	Name string
	Type zcl.AttributeType
}

// CommandSchema describes one cluster-specific command (server-received or
// client-received).
type CommandSchema struct {
	ID                   uint8
	Name                 string
	IsReply              bool
	ManufacturerSpecific bool
}

// Definition is the immutable, shared-across-instances schema for one
// cluster id: its attributes and commands. Definitions are built with
// NewDefinition, added to a Registry, and looked up through it.
type Definition struct {
	ClusterID     types.ClusterID
	Name          string
	Attributes    map[types.AttributeID]AttributeSchema
	attrByName    map[string]types.AttributeID
	ServerCommands map[uint8]CommandSchema
	ClientCommands map[uint8]CommandSchema
	serverByName  map[string]uint8
	clientByName  map[string]uint8
}

// NewDefinition builds a cluster definition and its name indexes.
func NewDefinition(id types.ClusterID, name string, attrs []AttributeSchema, serverCmds, clientCmds []CommandSchema) *Definition {
	d := &Definition{
		ClusterID:      id,
		Name:           name,
		Attributes:     make(map[types.AttributeID]AttributeSchema, len(attrs)),
		attrByName:     make(map[string]types.AttributeID, len(attrs)),
		ServerCommands: make(map[uint8]CommandSchema, len(serverCmds)),
		ClientCommands: make(map[uint8]CommandSchema, len(clientCmds)),
		serverByName:   make(map[string]uint8, len(serverCmds)),
		clientByName:   make(map[string]uint8, len(clientCmds)),
	}
	for _, a := range attrs {
		d.Attributes[a.ID] = a
		d.attrByName[a.Name] = a.ID
	}
	for _, c := range serverCmds {
		d.ServerCommands[c.ID] = c
		d.serverByName[c.Name] = c.ID
	}
	for _, c := range clientCmds {
		d.ClientCommands[c.ID] = c
		d.clientByName[c.Name] = c.ID
	}
	return d
}

// ResolveAttribute accepts either a types.AttributeID or a string name and
// returns the schema.
func (d *Definition) ResolveAttribute(key any) (AttributeSchema, error) {
	switch k := key.(type) {
	case types.AttributeID:
		a, ok := d.Attributes[k]
		if !ok {
			return AttributeSchema{}, fmt.Errorf("%w: id %#x in cluster %#x", ErrUnknownAttribute, uint16(k), uint16(d.ClusterID))
		}
		return a, nil
	case string:
		id, ok := d.attrByName[k]
		if !ok {
			return AttributeSchema{}, fmt.Errorf("%w: name %q in cluster %#x", ErrUnknownAttribute, k, uint16(d.ClusterID))
		}
		return d.Attributes[id], nil
	default:
		return AttributeSchema{}, fmt.Errorf("%w: key of type %T", ErrUnknownAttribute, key)
	}
}

// ResolveServerCommand accepts a command id or name.
func (d *Definition) ResolveServerCommand(key any) (CommandSchema, error) {
	return resolveCommand(d.ServerCommands, d.serverByName, key, d.ClusterID)
}

// ResolveClientCommand accepts a command id or name.
func (d *Definition) ResolveClientCommand(key any) (CommandSchema, error) {
	return resolveCommand(d.ClientCommands, d.clientByName, key, d.ClusterID)
}

func resolveCommand(byID map[uint8]CommandSchema, byName map[string]uint8, key any, clusterID types.ClusterID) (CommandSchema, error) {
	switch k := key.(type) {
	case uint8:
		c, ok := byID[k]
		if !ok {
			return CommandSchema{}, fmt.Errorf("%w: id %#x in cluster %#x", ErrUnknownCommand, k, uint16(clusterID))
		}
		return c, nil
	case string:
		id, ok := byName[k]
		if !ok {
			return CommandSchema{}, fmt.Errorf("%w: name %q in cluster %#x", ErrUnknownCommand, k, uint16(clusterID))
		}
		return byID[id], nil
	default:
		return CommandSchema{}, fmt.Errorf("%w: key of type %T", ErrUnknownCommand, key)
	}
}

// AttributeNames returns a sorted list of this definition's attribute
// names, for discover-attributes-like introspection and tests.
func (d *Definition) AttributeNames() []string {
	names := make([]string, 0, len(d.attrByName))
	for n := range d.attrByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// idRange is an inclusive manufacturer-specific cluster id range mapped to
// a shared definition (e.g. a vendor's private cluster band).
type idRange struct {
	lo, hi types.ClusterID
	def    *Definition
}

// Registry holds every known cluster definition, by exact id and by
// manufacturer-specific id range, and produces a generic fallback
// definition for ids it does not recognize.
type Registry struct {
	byID   map[types.ClusterID]*Definition
	ranges []idRange
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[types.ClusterID]*Definition)}
}

// Register adds a definition under its exact cluster id.
func (r *Registry) Register(d *Definition) {
	r.byID[d.ClusterID] = d
}

// RegisterRange adds a definition used for any cluster id in [lo, hi]
// that has no exact registration. Lookup hands back a copy of d whose
// ClusterID is the concrete id, so each resulting instance records its own
// id while the attribute and command tables stay shared.
func (r *Registry) RegisterRange(lo, hi types.ClusterID, d *Definition) {
	r.ranges = append(r.ranges, idRange{lo: lo, hi: hi, def: d})
}

// Lookup finds the definition for id: exact match first, then range match,
// then a generic empty definition whose name is "Unknown".
func (r *Registry) Lookup(id types.ClusterID) *Definition {
	if d, ok := r.byID[id]; ok {
		return d
	}
	for _, rg := range r.ranges {
		if id >= rg.lo && id <= rg.hi {
			d := *rg.def
			d.ClusterID = id
			return &d
		}
	}
	return NewDefinition(id, "Unknown", nil, nil, nil)
}
