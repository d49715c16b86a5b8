package structcodec

import "reflect"

// Record is an instance of a Struct's field values, tracking which fields
// are actually present (as opposed to absent due to a false Requires
// predicate or exhaustion during decode).
type Record struct {
	schema  *Struct
	values  map[string]any
	present map[string]bool
}

func newRecord(schema *Struct) *Record {
	return &Record{
		schema:  schema,
		values:  make(map[string]any),
		present: make(map[string]bool),
	}
}

// Set assigns a field's value and marks it present.
func (r *Record) Set(name string, v any) {
	r.values[name] = v
	r.present[name] = true
}

// Get returns a field's value and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.present[name]
	if !ok || !v {
		return nil, false
	}
	return r.values[name], true
}

// MustGet returns a field's value, panicking if it is absent. Intended for
// call sites that already know, from the schema, that the field is always
// present (e.g. a non-optional field with no Requires predicate).
func (r *Record) MustGet(name string) any {
	v, ok := r.Get(name)
	if !ok {
		panic("structcodec: field " + name + " is absent")
	}
	return v
}

// Present reports whether a field was set, independent of its value.
func (r *Record) Present(name string) bool { return r.present[name] }

// Equal compares two records of the same schema, ignoring fields absent on
// both sides.
func (r *Record) Equal(other *Record) bool {
	if other == nil || r.schema != other.schema {
		return false
	}
	for _, f := range r.schema.fields {
		rp, op := r.present[f.Name], other.present[f.Name]
		if !rp && !op {
			continue
		}
		if rp != op {
			return false
		}
		if !reflect.DeepEqual(r.values[f.Name], other.values[f.Name]) {
			return false
		}
	}
	return true
}
