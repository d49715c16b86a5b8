package types

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// IEEEAddress is the 8-byte globally unique EUI64 identifier of a Zigbee
// device. It is the primary, immutable key for a Device.
type IEEEAddress [8]byte

// IEEEAddressBroadcast is the reserved all-ones IEEE address used by backups
// to signal "not set".
var IEEEAddressBroadcast = IEEEAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// String renders the address as colon separated big-endian hex, e.g.
// "00:11:22:33:44:55:66:77", matching how Zigbee tooling displays EUI64s.
func (a IEEEAddress) String() string {
	parts := make([]string, len(a))
	for i, b := range a {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// IsZero reports whether the address is the zero value (never assigned).
func (a IEEEAddress) IsZero() bool {
	return a == IEEEAddress{}
}

// IsBroadcast reports whether the address is the reserved all-ones value.
func (a IEEEAddress) IsBroadcast() bool {
	return a == IEEEAddressBroadcast
}

// ParseIEEEAddress parses a colon or hyphen separated hex EUI64 string.
func ParseIEEEAddress(s string) (IEEEAddress, error) {
	var addr IEEEAddress
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(fields) != 8 {
		return addr, fmt.Errorf("invalid IEEE address %q: want 8 octets, got %d", s, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return addr, fmt.Errorf("invalid IEEE address %q: %w", s, err)
		}
		addr[i] = byte(v)
	}
	return addr, nil
}

// NWKAddress is the 2-byte short network address assigned to a device. It is
// mutable: a device's NWK address may change across a rejoin.
type NWKAddress uint16

// Reserved NWK addresses.
const (
	NWKAddressCoordinator  NWKAddress = 0x0000
	NWKAddressBroadcastAll NWKAddress = 0xFFFF
	NWKAddressBroadcastRxOn NWKAddress = 0xFFFD
	NWKAddressBroadcastRouters NWKAddress = 0xFFFC
)

// String renders the address as "0x1234".
func (a NWKAddress) String() string {
	return fmt.Sprintf("0x%04X", uint16(a))
}

// EndpointID identifies an addressable entity on a device. 0 is always ZDO.
type EndpointID uint8

// EndpointZDO is the reserved Zigbee Device Object endpoint.
const EndpointZDO EndpointID = 0

// ClusterID identifies a cluster's schema (attributes + commands).
type ClusterID uint16

// IsManufacturerSpecific reports whether the cluster id falls in the
// manufacturer-specific range (0xFC00-0xFFFF), per the Zigbee specification.
func (c ClusterID) IsManufacturerSpecific() bool {
	return c >= 0xFC00 && c <= 0xFFFF
}

// AttributeID identifies an attribute within a cluster's schema.
type AttributeID uint16

// ManufacturerCode identifies a vendor for manufacturer-specific dispatch.
type ManufacturerCode uint16

// GroupID is a 16-bit multicast address shared by a set of endpoints.
type GroupID uint16

// ClusterRole distinguishes the server and client sides of a cluster
// definition, since a single cluster id can be instantiated in either role
// on an endpoint.
type ClusterRole uint8

const (
	// ClusterRoleServer is the side that owns attribute state.
	ClusterRoleServer ClusterRole = iota
	// ClusterRoleClient is the side that issues commands/reads.
	ClusterRoleClient
)

func (r ClusterRole) String() string {
	if r == ClusterRoleClient {
		return "client"
	}
	return "server"
}

// LogicalType is the Zigbee node descriptor's logical device type.
type LogicalType uint8

const (
	LogicalTypeCoordinator LogicalType = 0x00
	LogicalTypeRouter      LogicalType = 0x01
	LogicalTypeEndDevice   LogicalType = 0x02
)

func (t LogicalType) String() string {
	switch t {
	case LogicalTypeCoordinator:
		return "coordinator"
	case LogicalTypeRouter:
		return "router"
	case LogicalTypeEndDevice:
		return "end_device"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// MACCapabilities is the bitmask of MAC capability flags carried in a node
// descriptor / device announce.
type MACCapabilities uint8

const (
	MACCapAlternatePANCoordinator MACCapabilities = 1 << 0
	MACCapFullFunctionDevice      MACCapabilities = 1 << 1
	MACCapMainsPowered            MACCapabilities = 1 << 2
	MACCapRxOnWhenIdle            MACCapabilities = 1 << 3
	MACCapSecurityCapable         MACCapabilities = 1 << 6
	MACCapAllocateAddress         MACCapabilities = 1 << 7
)

func (m MACCapabilities) RxOnWhenIdle() bool { return m&MACCapRxOnWhenIdle != 0 }
func (m MACCapabilities) IsFFD() bool        { return m&MACCapFullFunctionDevice != 0 }

// AddrMode selects how an AddrModeAddress's Address field is interpreted.
type AddrMode uint8

const (
	AddrModeGroup AddrMode = iota
	AddrModeNWK
	AddrModeIEEE
	AddrModeBroadcast
)

func (m AddrMode) String() string {
	switch m {
	case AddrModeGroup:
		return "group"
	case AddrModeNWK:
		return "nwk"
	case AddrModeIEEE:
		return "ieee"
	case AddrModeBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// AddrModeAddress is a tagged address: a 16-bit value for Group/NWK/Broadcast
// modes, or a 64-bit value for IEEE mode.
type AddrModeAddress struct {
	Mode    AddrMode
	Address uint64
}

// NWKAddr builds an AddrModeAddress targeting a short address.
func NWKAddr(a NWKAddress) AddrModeAddress {
	return AddrModeAddress{Mode: AddrModeNWK, Address: uint64(a)}
}

// IEEEAddr builds an AddrModeAddress targeting a long address.
func IEEEAddr(a IEEEAddress) AddrModeAddress {
	return AddrModeAddress{Mode: AddrModeIEEE, Address: binary.LittleEndian.Uint64(a[:])}
}

// GroupAddr builds an AddrModeAddress targeting a group.
func GroupAddr(g GroupID) AddrModeAddress {
	return AddrModeAddress{Mode: AddrModeGroup, Address: uint64(g)}
}

// BroadcastAddr builds an AddrModeAddress targeting a broadcast NWK address.
func BroadcastAddr(a NWKAddress) AddrModeAddress {
	return AddrModeAddress{Mode: AddrModeBroadcast, Address: uint64(a)}
}

// IEEE extracts the IEEE address encoded in an IEEE-mode AddrModeAddress.
func (a AddrModeAddress) IEEE() IEEEAddress {
	var out IEEEAddress
	binary.LittleEndian.PutUint64(out[:], a.Address)
	return out
}

// NWK extracts the NWK/Group/Broadcast 16-bit value.
func (a AddrModeAddress) NWK() NWKAddress {
	return NWKAddress(uint16(a.Address))
}
