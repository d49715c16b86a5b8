package wire

import (
	"fmt"

	"github.com/tj-smith47/zigbee-core/types"
)

// SerializeIEEEAddress encodes an EUI64 in little-endian byte order, as used
// on the wire (the human-readable String() form is big-endian).
func SerializeIEEEAddress(a types.IEEEAddress) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = a[7-i]
	}
	return out
}

// DeserializeIEEEAddress decodes a little-endian EUI64.
func DeserializeIEEEAddress(b []byte) (types.IEEEAddress, []byte, error) {
	var addr types.IEEEAddress
	if len(b) < 8 {
		return addr, nil, fmt.Errorf("%w: IEEE address needs 8 bytes, have %d", ErrShortBuffer, len(b))
	}
	for i := 0; i < 8; i++ {
		addr[7-i] = b[i]
	}
	return addr, b[8:], nil
}

// SerializeNWKAddress encodes a short address.
func SerializeNWKAddress(a types.NWKAddress) []byte { return SerializeUint16(uint16(a)) }

// DeserializeNWKAddress decodes a short address.
func DeserializeNWKAddress(b []byte) (types.NWKAddress, []byte, error) {
	v, rest, err := DeserializeUint16(b)
	return types.NWKAddress(v), rest, err
}

// ChannelMask is a bitmap over Zigbee channels 11..26, encoded as a
// little-endian u32 with bit N set meaning "channel N is a member".
type ChannelMask uint32

// NewChannelMask builds a mask from a list of channel numbers in [11,26].
func NewChannelMask(channels ...uint8) ChannelMask {
	var m ChannelMask
	for _, c := range channels {
		if c >= 11 && c <= 26 {
			m |= 1 << c
		}
	}
	return m
}

// Channels returns the sorted channel numbers set in the mask.
func (m ChannelMask) Channels() []uint8 {
	var out []uint8
	for c := uint8(11); c <= 26; c++ {
		if m&(1<<c) != 0 {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether channel c is a member of the mask.
func (m ChannelMask) Has(c uint8) bool {
	if c < 11 || c > 26 {
		return false
	}
	return m&(1<<c) != 0
}

// SerializeChannelMask encodes the mask as a little-endian u32.
func SerializeChannelMask(m ChannelMask) []byte { return SerializeUint32(uint32(m)) }

// DeserializeChannelMask decodes a little-endian u32 channel mask.
func DeserializeChannelMask(b []byte) (ChannelMask, []byte, error) {
	v, rest, err := DeserializeUint32(b)
	return ChannelMask(v), rest, err
}
