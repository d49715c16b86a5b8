package wire

import "fmt"

// putUint writes the low n bytes of v in little-endian order.
func putUint(v uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

// takeUint reads n little-endian bytes from b, returning the value and the
// remainder of b.
func takeUint(b []byte, n int) (uint64, []byte, error) {
	if len(b) < n {
		return 0, nil, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, len(b))
	}
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, b[n:], nil
}

// SerializeUint8 encodes an unsigned 8-bit integer.
func SerializeUint8(v uint8) []byte { return []byte{v} }

// DeserializeUint8 decodes an unsigned 8-bit integer.
func DeserializeUint8(b []byte) (uint8, []byte, error) {
	v, rest, err := takeUint(b, 1)
	return uint8(v), rest, err
}

// SerializeUint16 encodes a little-endian unsigned 16-bit integer.
func SerializeUint16(v uint16) []byte { return putUint(uint64(v), 2) }

// DeserializeUint16 decodes a little-endian unsigned 16-bit integer.
func DeserializeUint16(b []byte) (uint16, []byte, error) {
	v, rest, err := takeUint(b, 2)
	return uint16(v), rest, err
}

// SerializeUint24 encodes a little-endian unsigned 24-bit integer (stored in
// the low 24 bits of v).
func SerializeUint24(v uint32) []byte { return putUint(uint64(v), 3) }

// DeserializeUint24 decodes a little-endian unsigned 24-bit integer.
func DeserializeUint24(b []byte) (uint32, []byte, error) {
	v, rest, err := takeUint(b, 3)
	return uint32(v), rest, err
}

// SerializeUint32 encodes a little-endian unsigned 32-bit integer.
func SerializeUint32(v uint32) []byte { return putUint(uint64(v), 4) }

// DeserializeUint32 decodes a little-endian unsigned 32-bit integer.
func DeserializeUint32(b []byte) (uint32, []byte, error) {
	v, rest, err := takeUint(b, 4)
	return uint32(v), rest, err
}

// SerializeUint40 encodes a little-endian unsigned 40-bit integer (low 40
// bits of v).
func SerializeUint40(v uint64) []byte { return putUint(v, 5) }

// DeserializeUint40 decodes a little-endian unsigned 40-bit integer.
func DeserializeUint40(b []byte) (uint64, []byte, error) { return takeUint(b, 5) }

// SerializeUint48 encodes a little-endian unsigned 48-bit integer.
func SerializeUint48(v uint64) []byte { return putUint(v, 6) }

// DeserializeUint48 decodes a little-endian unsigned 48-bit integer.
func DeserializeUint48(b []byte) (uint64, []byte, error) { return takeUint(b, 6) }

// SerializeUint56 encodes a little-endian unsigned 56-bit integer.
func SerializeUint56(v uint64) []byte { return putUint(v, 7) }

// DeserializeUint56 decodes a little-endian unsigned 56-bit integer.
func DeserializeUint56(b []byte) (uint64, []byte, error) { return takeUint(b, 7) }

// SerializeUint64 encodes a little-endian unsigned 64-bit integer.
func SerializeUint64(v uint64) []byte { return putUint(v, 8) }

// DeserializeUint64 decodes a little-endian unsigned 64-bit integer.
func DeserializeUint64(b []byte) (uint64, []byte, error) { return takeUint(b, 8) }

// signExtend sign-extends the low n*8 bits of v to a full int64.
func signExtend(v uint64, n int) int64 {
	shift := uint(64 - 8*n)
	return int64(v<<shift) >> shift
}

// SerializeInt8 encodes a signed 8-bit integer.
func SerializeInt8(v int8) []byte { return SerializeUint8(uint8(v)) }

// DeserializeInt8 decodes a signed 8-bit integer.
func DeserializeInt8(b []byte) (int8, []byte, error) {
	v, rest, err := DeserializeUint8(b)
	return int8(v), rest, err
}

// SerializeInt16 encodes a little-endian signed 16-bit integer.
func SerializeInt16(v int16) []byte { return SerializeUint16(uint16(v)) }

// DeserializeInt16 decodes a little-endian signed 16-bit integer.
func DeserializeInt16(b []byte) (int16, []byte, error) {
	v, rest, err := takeUint(b, 2)
	return int16(signExtend(v, 2)), rest, err
}

// SerializeInt24 encodes a little-endian signed 24-bit integer.
func SerializeInt24(v int32) []byte { return putUint(uint64(uint32(v))&0xFFFFFF, 3) }

// DeserializeInt24 decodes a little-endian signed 24-bit integer.
func DeserializeInt24(b []byte) (int32, []byte, error) {
	v, rest, err := takeUint(b, 3)
	return int32(signExtend(v, 3)), rest, err
}

// SerializeInt40 encodes a little-endian signed 40-bit integer.
func SerializeInt40(v int64) []byte { return putUint(uint64(v)&0xFFFFFFFFFF, 5) }

// DeserializeInt40 decodes a little-endian signed 40-bit integer.
func DeserializeInt40(b []byte) (int64, []byte, error) {
	v, rest, err := takeUint(b, 5)
	return signExtend(v, 5), rest, err
}

// SerializeInt48 encodes a little-endian signed 48-bit integer.
func SerializeInt48(v int64) []byte { return putUint(uint64(v)&0xFFFFFFFFFFFF, 6) }

// DeserializeInt48 decodes a little-endian signed 48-bit integer.
func DeserializeInt48(b []byte) (int64, []byte, error) {
	v, rest, err := takeUint(b, 6)
	return signExtend(v, 6), rest, err
}

// SerializeInt56 encodes a little-endian signed 56-bit integer.
func SerializeInt56(v int64) []byte { return putUint(uint64(v)&0xFFFFFFFFFFFFFF, 7) }

// DeserializeInt56 decodes a little-endian signed 56-bit integer.
func DeserializeInt56(b []byte) (int64, []byte, error) {
	v, rest, err := takeUint(b, 7)
	return signExtend(v, 7), rest, err
}

// SerializeInt32 encodes a little-endian signed 32-bit integer.
func SerializeInt32(v int32) []byte { return SerializeUint32(uint32(v)) }

// DeserializeInt32 decodes a little-endian signed 32-bit integer.
func DeserializeInt32(b []byte) (int32, []byte, error) {
	v, rest, err := takeUint(b, 4)
	return int32(signExtend(v, 4)), rest, err
}

// SerializeInt64 encodes a little-endian signed 64-bit integer.
func SerializeInt64(v int64) []byte { return SerializeUint64(uint64(v)) }

// DeserializeInt64 decodes a little-endian signed 64-bit integer.
func DeserializeInt64(b []byte) (int64, []byte, error) {
	v, rest, err := takeUint(b, 8)
	return int64(v), rest, err
}

// SerializeBool encodes a ZCL boolean (0x00 false, 0x01 true).
func SerializeBool(v bool) []byte {
	if v {
		return []byte{0x01}
	}
	return []byte{0x00}
}

// DeserializeBool decodes a ZCL boolean. Any non-zero byte decodes true.
func DeserializeBool(b []byte) (bool, []byte, error) {
	v, rest, err := DeserializeUint8(b)
	if err != nil {
		return false, nil, err
	}
	return v != 0, rest, nil
}
