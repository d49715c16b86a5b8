package wire

import "fmt"

// SerializeList encodes a u8-count-prefixed homogeneous list using the given
// per-element serializer.
func SerializeList[T any](items []T, serialize func(T) []byte) []byte {
	out := make([]byte, 0, 1+len(items))
	out = append(out, byte(len(items)))
	for _, item := range items {
		out = append(out, serialize(item)...)
	}
	return out
}

// DeserializeList decodes a u8-count-prefixed homogeneous list using the
// given per-element deserializer.
func DeserializeList[T any](b []byte, deserialize func([]byte) (T, []byte, error)) ([]T, []byte, error) {
	n, rest, err := DeserializeUint8(b)
	if err != nil {
		return nil, nil, err
	}
	items := make([]T, 0, n)
	for i := 0; i < int(n); i++ {
		var item T
		item, rest, err = deserialize(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("list element %d/%d: %w", i, n, err)
		}
		items = append(items, item)
	}
	return items, rest, nil
}

// SerializeLongList encodes a u16-count-prefixed homogeneous list.
func SerializeLongList[T any](items []T, serialize func(T) []byte) []byte {
	out := make([]byte, 0, 2+len(items))
	out = append(out, SerializeUint16(uint16(len(items)))...)
	for _, item := range items {
		out = append(out, serialize(item)...)
	}
	return out
}

// DeserializeLongList decodes a u16-count-prefixed homogeneous list.
func DeserializeLongList[T any](b []byte, deserialize func([]byte) (T, []byte, error)) ([]T, []byte, error) {
	n, rest, err := DeserializeUint16(b)
	if err != nil {
		return nil, nil, err
	}
	items := make([]T, 0, n)
	for i := 0; i < int(n); i++ {
		var item T
		item, rest, err = deserialize(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("list element %d/%d: %w", i, n, err)
		}
		items = append(items, item)
	}
	return items, rest, nil
}

// SerializeRawList encodes a fixed-count list with no length prefix: every
// element is written in order. Used for struct trailing lists whose count is
// carried by an earlier struct field rather than self-described.
func SerializeRawList[T any](items []T, serialize func(T) []byte) []byte {
	var out []byte
	for _, item := range items {
		out = append(out, serialize(item)...)
	}
	return out
}

// DeserializeRawList decodes exactly n elements with no length prefix.
func DeserializeRawList[T any](b []byte, n int, deserialize func([]byte) (T, []byte, error)) ([]T, []byte, error) {
	items := make([]T, 0, n)
	rest := b
	var err error
	for i := 0; i < n; i++ {
		var item T
		item, rest, err = deserialize(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("raw list element %d/%d: %w", i, n, err)
		}
		items = append(items, item)
	}
	return items, rest, nil
}
