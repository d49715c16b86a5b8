package wire

import "math"

// SerializeFloat32 encodes an IEEE 754 single precision float, little-endian.
func SerializeFloat32(v float32) []byte {
	return SerializeUint32(math.Float32bits(v))
}

// DeserializeFloat32 decodes an IEEE 754 single precision float.
func DeserializeFloat32(b []byte) (float32, []byte, error) {
	bits, rest, err := DeserializeUint32(b)
	if err != nil {
		return 0, nil, err
	}
	return math.Float32frombits(bits), rest, nil
}

// SerializeFloat64 encodes an IEEE 754 double precision float, little-endian.
func SerializeFloat64(v float64) []byte {
	return SerializeUint64(math.Float64bits(v))
}

// DeserializeFloat64 decodes an IEEE 754 double precision float.
func DeserializeFloat64(b []byte) (float64, []byte, error) {
	bits, rest, err := DeserializeUint64(b)
	if err != nil {
		return 0, nil, err
	}
	return math.Float64frombits(bits), rest, nil
}
