package zcl

import (
	"fmt"

	"github.com/tj-smith47/zigbee-core/wire"
)

// FrameType distinguishes general (foundation) commands from
// cluster-specific ones.
type FrameType uint8

const (
	FrameTypeGeneral         FrameType = 0
	FrameTypeClusterSpecific FrameType = 1
)

// Direction is the frame-control direction bit.
type Direction uint8

const (
	DirectionClientToServer Direction = 0
	DirectionServerToClient Direction = 1
)

// Header is a ZCL frame header: frame-control byte, optional manufacturer
// code, transaction sequence number, and command id.
type Header struct {
	FrameType              FrameType
	ManufacturerSpecific   bool
	Direction              Direction
	DisableDefaultResponse bool
	ManufacturerCode       uint16 // only meaningful when ManufacturerSpecific
	TSN                    uint8
	CommandID              uint8
}

const (
	fcFrameTypeMask  = 0x03
	fcManufacturer   = 0x04
	fcDirectionShift = 3
	fcDirectionMask  = 0x08
	fcDisableDefault = 0x10
)

func (h Header) frameControlByte() byte {
	var b byte
	b |= byte(h.FrameType) & fcFrameTypeMask
	if h.ManufacturerSpecific {
		b |= fcManufacturer
	}
	b |= byte(h.Direction) << fcDirectionShift
	if h.DisableDefaultResponse {
		b |= fcDisableDefault
	}
	return b
}

// SerializeHeader encodes the frame-control byte, the manufacturer code if
// present, the TSN, and the command id.
func SerializeHeader(h Header) []byte {
	out := make([]byte, 0, 5)
	out = append(out, h.frameControlByte())
	if h.ManufacturerSpecific {
		out = append(out, wire.SerializeUint16(h.ManufacturerCode)...)
	}
	out = append(out, h.TSN, h.CommandID)
	return out
}

// DeserializeHeader decodes a frame header from the start of b, returning
// the remainder.
func DeserializeHeader(b []byte) (Header, []byte, error) {
	if len(b) < 1 {
		return Header{}, nil, fmt.Errorf("%w: empty buffer", ErrShortFrame)
	}
	fc := b[0]
	rest := b[1:]

	h := Header{
		FrameType:              FrameType(fc & fcFrameTypeMask),
		ManufacturerSpecific:   fc&fcManufacturer != 0,
		Direction:              Direction((fc & fcDirectionMask) >> fcDirectionShift),
		DisableDefaultResponse: fc&fcDisableDefault != 0,
	}

	if h.ManufacturerSpecific {
		mc, next, err := wire.DeserializeUint16(rest)
		if err != nil {
			return Header{}, nil, fmt.Errorf("manufacturer code: %w", err)
		}
		h.ManufacturerCode = mc
		rest = next
	}

	if len(rest) < 2 {
		return Header{}, nil, fmt.Errorf("%w: need TSN and command id, have %d bytes", ErrShortFrame, len(rest))
	}
	h.TSN = rest[0]
	h.CommandID = rest[1]
	return h, rest[2:], nil
}
