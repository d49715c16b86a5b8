package structcodec

import (
	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/wire"
)

// Uint8Field declares a one-byte unsigned field.
func Uint8Field(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeUint8(v.(uint8))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeUint8(b)
			return val, rest, err
		},
	}
}

// Uint16Field declares a two-byte little-endian unsigned field.
func Uint16Field(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeUint16(v.(uint16))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeUint16(b)
			return val, rest, err
		},
	}
}

// Uint32Field declares a four-byte little-endian unsigned field.
func Uint32Field(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeUint32(v.(uint32))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeUint32(b)
			return val, rest, err
		},
	}
}

// BoolField declares a one-byte boolean field.
func BoolField(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeBool(v.(bool))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeBool(b)
			return val, rest, err
		},
	}
}

// NWKAddressField declares a two-byte network address field.
func NWKAddressField(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeNWKAddress(v.(types.NWKAddress))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeNWKAddress(b)
			return val, rest, err
		},
	}
}

// IEEEAddressField declares an eight-byte IEEE/EUI64 address field.
func IEEEAddressField(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeIEEEAddress(v.(types.IEEEAddress))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeIEEEAddress(b)
			return val, rest, err
		},
	}
}

// OctetStringField declares a u8-length-prefixed byte string field.
func OctetStringField(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeOctetString(v.([]byte))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeOctetString(b)
			return val, rest, err
		},
	}
}

// CharacterStringField declares a u8-length-prefixed UTF-8 string field.
func CharacterStringField(name string, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeCharacterString(v.(string))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			val, rest, err := wire.DeserializeCharacterString(b)
			return val, rest, err
		},
	}
}

// NestedField embeds another Struct's record as a single field, for
// composite wire records such as a neighbor table entry inside a list.
func NestedField(name string, nested *Struct, requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return nested.Serialize(v.(*Record))
		},
		Deserialize: func(b []byte, _ *Record) (any, []byte, error) {
			return nested.Deserialize(b)
		},
	}
}

// CountField declares a u8 or u16 field that will later be consulted by a
// ListField via countFrom. width must be 1 or 2.
func CountField(name string, width int, requires func(*Record) bool) Field {
	if width == 2 {
		return Uint16Field(name, requires)
	}
	return Uint8Field(name, requires)
}

// ListField declares a trailing field whose element count is read from an
// earlier field named countFrom (populated by CountField), with no
// self-describing length prefix of its own. Used for ZDO response bodies
// like active-endpoint lists and LQI/routing table pages, where the count
// precedes the list in a separate field.
func ListField[T any](name, countFrom string, serialize func(T) []byte, deserialize func([]byte) (T, []byte, error), requires func(*Record) bool) Field {
	return Field{
		Name:     name,
		Requires: requires,
		Serialize: func(v any, _ *Record) []byte {
			return wire.SerializeRawList(v.([]T), serialize)
		},
		Deserialize: func(b []byte, rec *Record) (any, []byte, error) {
			n := fieldCount(rec, countFrom)
			return wire.DeserializeRawList(b, n, deserialize)
		},
	}
}

func fieldCount(rec *Record, countFrom string) int {
	v, ok := rec.Get(countFrom)
	if !ok {
		return 0
	}
	switch c := v.(type) {
	case uint8:
		return int(c)
	case uint16:
		return int(c)
	case int:
		return c
	default:
		return 0
	}
}
