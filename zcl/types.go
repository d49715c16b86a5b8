package zcl

import (
	"fmt"

	"github.com/tj-smith47/zigbee-core/types"
	"github.com/tj-smith47/zigbee-core/wire"
)

// AttributeType is the one-byte type tag that precedes every attribute
// value on the wire.
type AttributeType uint8

// The type tags actually exercised by this module. General data (raw byte
// arrays of width 1..8) and a handful of rarely-seen types (BACnet OID,
// 128-bit security key) are deliberately not wired to a Go type: nothing in
// this codebase reads or writes those attributes, and adding dead dispatch
// entries for them would just be unreachable code.
const (
	TypeNoData              AttributeType = 0x00
	TypeBool                AttributeType = 0x10
	TypeBitmap8              AttributeType = 0x18
	TypeBitmap16             AttributeType = 0x19
	TypeBitmap24             AttributeType = 0x1a
	TypeBitmap32             AttributeType = 0x1b
	TypeBitmap40             AttributeType = 0x1c
	TypeBitmap48             AttributeType = 0x1d
	TypeBitmap56             AttributeType = 0x1e
	TypeBitmap64             AttributeType = 0x1f
	TypeUint8                AttributeType = 0x20
	TypeUint16               AttributeType = 0x21
	TypeUint24               AttributeType = 0x22
	TypeUint32               AttributeType = 0x23
	TypeUint40               AttributeType = 0x24
	TypeUint48               AttributeType = 0x25
	TypeUint56               AttributeType = 0x26
	TypeUint64               AttributeType = 0x27
	TypeInt8                 AttributeType = 0x28
	TypeInt16                AttributeType = 0x29
	TypeInt24                AttributeType = 0x2a
	TypeInt32                AttributeType = 0x2b
	TypeInt40                AttributeType = 0x2c
	TypeInt48                AttributeType = 0x2d
	TypeInt56                AttributeType = 0x2e
	TypeInt64                AttributeType = 0x2f
	TypeEnum8                AttributeType = 0x30
	TypeEnum16               AttributeType = 0x31
	TypeFloat32              AttributeType = 0x39
	TypeFloat64              AttributeType = 0x3a
	TypeOctetString          AttributeType = 0x41
	TypeCharacterString      AttributeType = 0x42
	TypeLongOctetString      AttributeType = 0x43
	TypeLongCharacterString  AttributeType = 0x44
	TypeArray                AttributeType = 0x48
	TypeStructure            AttributeType = 0x4c
	TypeSet                  AttributeType = 0x50
	TypeBag                  AttributeType = 0x51
	TypeTimeOfDay            AttributeType = 0xe0
	TypeDate                 AttributeType = 0xe1
	TypeUTCTime              AttributeType = 0xe2
	TypeClusterID            AttributeType = 0xe8
	TypeAttributeID          AttributeType = 0xe9
	TypeIEEEAddress          AttributeType = 0xf0
	TypeUnknown              AttributeType = 0xff
)

// Class is the analog/discrete classification that governs whether
// configure-reporting carries a reportable_change payload for a given type.
type Class uint8

const (
	ClassDiscrete Class = iota
	ClassAnalog
)

type typeCodec struct {
	class       Class
	serialize   func(v any) []byte
	deserialize func(b []byte) (any, []byte, error)
}

var typeRegistry map[AttributeType]typeCodec

func wrap1[T any](s func(T) []byte, d func([]byte) (T, []byte, error)) (func(any) []byte, func([]byte) (any, []byte, error)) {
	ser := func(v any) []byte { return s(v.(T)) }
	deser := func(b []byte) (any, []byte, error) {
		val, rest, err := d(b)
		return val, rest, err
	}
	return ser, deser
}

func init() {
	typeRegistry = make(map[AttributeType]typeCodec)

	reg := func(tag AttributeType, class Class, ser func(any) []byte, deser func([]byte) (any, []byte, error)) {
		typeRegistry[tag] = typeCodec{class: class, serialize: ser, deserialize: deser}
	}

	{
		s, d := wrap1(wire.SerializeBool, wire.DeserializeBool)
		reg(TypeBool, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint8, wire.DeserializeUint8)
		reg(TypeBitmap8, ClassDiscrete, s, d)
		reg(TypeEnum8, ClassDiscrete, s, d)
		reg(TypeUint8, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint16, wire.DeserializeUint16)
		reg(TypeBitmap16, ClassDiscrete, s, d)
		reg(TypeEnum16, ClassDiscrete, s, d)
		reg(TypeUint16, ClassAnalog, s, d)
		reg(TypeClusterID, ClassDiscrete, s, d)
		reg(TypeAttributeID, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint24, wire.DeserializeUint24)
		reg(TypeBitmap24, ClassDiscrete, s, d)
		reg(TypeUint24, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint32, wire.DeserializeUint32)
		reg(TypeBitmap32, ClassDiscrete, s, d)
		reg(TypeUint32, ClassAnalog, s, d)
		reg(TypeTimeOfDay, ClassAnalog, s, d)
		reg(TypeDate, ClassAnalog, s, d)
		reg(TypeUTCTime, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint40, wire.DeserializeUint40)
		reg(TypeBitmap40, ClassDiscrete, s, d)
		reg(TypeUint40, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint48, wire.DeserializeUint48)
		reg(TypeBitmap48, ClassDiscrete, s, d)
		reg(TypeUint48, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint56, wire.DeserializeUint56)
		reg(TypeBitmap56, ClassDiscrete, s, d)
		reg(TypeUint56, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeUint64, wire.DeserializeUint64)
		reg(TypeBitmap64, ClassDiscrete, s, d)
		reg(TypeUint64, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt8, wire.DeserializeInt8)
		reg(TypeInt8, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt16, wire.DeserializeInt16)
		reg(TypeInt16, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt24, wire.DeserializeInt24)
		reg(TypeInt24, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt32, wire.DeserializeInt32)
		reg(TypeInt32, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt40, wire.DeserializeInt40)
		reg(TypeInt40, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt48, wire.DeserializeInt48)
		reg(TypeInt48, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt56, wire.DeserializeInt56)
		reg(TypeInt56, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeInt64, wire.DeserializeInt64)
		reg(TypeInt64, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeFloat32, wire.DeserializeFloat32)
		reg(TypeFloat32, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeFloat64, wire.DeserializeFloat64)
		reg(TypeFloat64, ClassAnalog, s, d)
	}
	{
		s, d := wrap1(wire.SerializeOctetString, wire.DeserializeOctetString)
		reg(TypeOctetString, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeCharacterString, wire.DeserializeCharacterString)
		reg(TypeCharacterString, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeLongOctetString, wire.DeserializeLongOctetString)
		reg(TypeLongOctetString, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeLongCharacterString, wire.DeserializeLongCharacterString)
		reg(TypeLongCharacterString, ClassDiscrete, s, d)
	}
	{
		s, d := wrap1(wire.SerializeIEEEAddress, wire.DeserializeIEEEAddress)
		reg(TypeIEEEAddress, ClassDiscrete, s, d)
	}

	reg(TypeArray, ClassDiscrete,
		func(v any) []byte { return serializeCollection(v.([]AttributeValue)) },
		func(b []byte) (any, []byte, error) { return deserializeCollection(b) },
	)
	reg(TypeSet, ClassDiscrete,
		func(v any) []byte { return serializeCollection(v.([]AttributeValue)) },
		func(b []byte) (any, []byte, error) { return deserializeCollection(b) },
	)
	reg(TypeBag, ClassDiscrete,
		func(v any) []byte { return serializeCollection(v.([]AttributeValue)) },
		func(b []byte) (any, []byte, error) { return deserializeCollection(b) },
	)
	reg(TypeStructure, ClassDiscrete,
		func(v any) []byte { return serializeStructure(v.([]AttributeValue)) },
		func(b []byte) (any, []byte, error) { return deserializeStructure(b) },
	)
}

// Classify reports whether tag is analog or discrete, as used to decide
// whether configure-reporting carries a reportable_change payload.
func Classify(tag AttributeType) (Class, error) {
	c, ok := typeRegistry[tag]
	if !ok {
		return 0, fmt.Errorf("%w: %#x", ErrUnknownType, uint8(tag))
	}
	return c.class, nil
}

// AttributeValue is the `(type_tag, value)` tagged union every ZCL
// attribute read/write/report carries. Value's concrete Go type depends on
// Type: bool, uintN/intN (widened to the smallest Go integer that holds
// the width), float32/64, string, []byte, types.IEEEAddress, or
// []AttributeValue for array/set/bag/structure.
type AttributeValue struct {
	Type  AttributeType
	Value any
}

// NewAttributeValue builds a tagged value for a registered type.
func NewAttributeValue(tag AttributeType, value any) AttributeValue {
	return AttributeValue{Type: tag, Value: value}
}

// Serialize encodes the type tag followed by the value payload.
func (av AttributeValue) Serialize() []byte {
	out := []byte{byte(av.Type)}
	codec, ok := typeRegistry[av.Type]
	if !ok || av.Value == nil {
		return out
	}
	return append(out, codec.serialize(av.Value)...)
}

// DeserializeAttributeValue decodes a type tag and its value.
func DeserializeAttributeValue(b []byte) (AttributeValue, []byte, error) {
	tag, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return AttributeValue{}, nil, err
	}
	t := AttributeType(tag)
	if t == TypeNoData || t == TypeUnknown {
		return AttributeValue{Type: t}, rest, nil
	}
	codec, ok := typeRegistry[t]
	if !ok {
		return AttributeValue{}, nil, fmt.Errorf("%w: %#x", ErrUnknownType, tag)
	}
	val, next, err := codec.deserialize(rest)
	if err != nil {
		return AttributeValue{}, nil, fmt.Errorf("attribute value %#x: %w", tag, err)
	}
	return AttributeValue{Type: t, Value: val}, next, nil
}

func serializeCollection(items []AttributeValue) []byte {
	var elemType AttributeType = TypeUnknown
	if len(items) > 0 {
		elemType = items[0].Type
	}
	out := []byte{byte(elemType)}
	out = append(out, wire.SerializeUint16(uint16(len(items)))...)
	for _, it := range items {
		codec, ok := typeRegistry[it.Type]
		if !ok {
			continue
		}
		out = append(out, codec.serialize(it.Value)...)
	}
	return out
}

func deserializeCollection(b []byte) ([]AttributeValue, []byte, error) {
	elemTag, rest, err := wire.DeserializeUint8(b)
	if err != nil {
		return nil, nil, err
	}
	n, rest2, err := wire.DeserializeUint16(rest)
	if err != nil {
		return nil, nil, err
	}
	t := AttributeType(elemTag)
	codec, ok := typeRegistry[t]
	if !ok {
		return nil, nil, fmt.Errorf("%w: collection element %#x", ErrUnknownType, elemTag)
	}
	items := make([]AttributeValue, 0, n)
	rest3 := rest2
	for i := 0; i < int(n); i++ {
		val, next, err := codec.deserialize(rest3)
		if err != nil {
			return nil, nil, fmt.Errorf("collection element %d/%d: %w", i, n, err)
		}
		items = append(items, AttributeValue{Type: t, Value: val})
		rest3 = next
	}
	return items, rest3, nil
}

func serializeStructure(items []AttributeValue) []byte {
	out := wire.SerializeUint16(uint16(len(items)))
	for _, it := range items {
		out = append(out, it.Serialize()...)
	}
	return out
}

func deserializeStructure(b []byte) ([]AttributeValue, []byte, error) {
	n, rest, err := wire.DeserializeUint16(b)
	if err != nil {
		return nil, nil, err
	}
	items := make([]AttributeValue, 0, n)
	for i := 0; i < int(n); i++ {
		var item AttributeValue
		item, rest, err = DeserializeAttributeValue(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("structure member %d/%d: %w", i, n, err)
		}
		items = append(items, item)
	}
	return items, rest, nil
}

// clusterIDValue and attributeIDValue are small convenience constructors
// for an AttributeValue holding a types.ClusterID/AttributeID; nothing in
// this package calls them.
func clusterIDValue(id types.ClusterID) AttributeValue {
	return AttributeValue{Type: TypeClusterID, Value: uint16(id)}
}

func attributeIDValue(id types.AttributeID) AttributeValue {
	return AttributeValue{Type: TypeAttributeID, Value: uint16(id)}
}
