// Package structcodec builds declarative wire records on top of package
// wire: an ordered list of fields, each with a type and an optional
// predicate that decides whether the field is present at all. ZDO response
// bodies and OTA command trailers are the main consumers — both have
// fields whose presence depends on an earlier field's value or on whether
// the input simply ran out.
//
// A Struct is built once (typically as a package-level var) and reused to
// encode/decode many values of the same shape. Field order is significant
// and mirrors wire order.
package structcodec

import "errors"

// ErrOptionalOrder is returned by NewStruct when a required field follows
// an optional one.
var ErrOptionalOrder = errors.New("structcodec: optional fields must come after all required fields")

// ErrDuplicateField is returned by NewStruct when two fields share a name.
var ErrDuplicateField = errors.New("structcodec: duplicate field name")

// ErrFieldExhausted is returned by Deserialize when the input runs out
// before a required (non-optional) field.
var ErrFieldExhausted = errors.New("structcodec: input exhausted before required field")
