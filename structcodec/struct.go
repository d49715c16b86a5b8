package structcodec

import "fmt"

// Field describes one ordered slot of a Struct. Serialize and Deserialize
// both receive the Record built so far, so a field's encoding can depend on
// values already read or written earlier in the struct (a list field whose
// count lives in an earlier field, for instance).
type Field struct {
	Name string

	// Requires decides whether this field is present at all. A nil
	// Requires means the field is always present. Evaluated against the
	// partially built Record, so it may only inspect earlier fields.
	Requires func(*Record) bool

	// Optional marks a trailing field that may be legitimately absent
	// because the input ran out before reaching it. Optional fields must
	// appear only after every non-optional field in the list.
	Optional bool

	Serialize   func(v any, rec *Record) []byte
	Deserialize func(b []byte, rec *Record) (any, []byte, error)
}

// Struct is a reusable, ordered field schema.
type Struct struct {
	name   string
	fields []Field
}

// NewStruct validates field order (duplicates forbidden, optional fields
// only after required ones) and returns a reusable schema.
func NewStruct(name string, fields ...Field) (*Struct, error) {
	seen := make(map[string]bool, len(fields))
	sawOptional := false
	for _, f := range fields {
		if seen[f.Name] {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, ErrDuplicateField)
		}
		seen[f.Name] = true
		if f.Optional {
			sawOptional = true
		} else if sawOptional {
			return nil, fmt.Errorf("%s.%s: %w", name, f.Name, ErrOptionalOrder)
		}
	}
	return &Struct{name: name, fields: fields}, nil
}

// Name returns the struct's declared name, used in error messages.
func (s *Struct) Name() string { return s.name }

// NewRecord creates an empty record bound to this schema, with the given
// field values pre-set (all other fields start absent). Intended for
// building a value to serialize.
func (s *Struct) NewRecord(values map[string]any) *Record {
	rec := newRecord(s)
	for k, v := range values {
		rec.Set(k, v)
	}
	return rec
}

// Serialize writes every present field in schema order. A field whose
// Requires predicate returns false, or that was never set on rec, is
// skipped.
func (s *Struct) Serialize(rec *Record) []byte {
	var out []byte
	for _, f := range s.fields {
		if f.Requires != nil && !f.Requires(rec) {
			continue
		}
		v, ok := rec.Get(f.Name)
		if !ok {
			continue
		}
		out = append(out, f.Serialize(v, rec)...)
	}
	return out
}

// Deserialize reads fields in schema order. Once input is exhausted, every
// remaining field must be Optional or deserialization fails with
// ErrFieldExhausted; fields skipped by a false Requires predicate never
// consume input and are simply left absent.
func (s *Struct) Deserialize(b []byte) (*Record, []byte, error) {
	rec := newRecord(s)
	rest := b
	exhausted := false
	for _, f := range s.fields {
		if f.Requires != nil && !f.Requires(rec) {
			continue
		}
		if !exhausted && len(rest) == 0 {
			exhausted = true
		}
		if exhausted {
			if f.Optional {
				continue
			}
			return nil, nil, fmt.Errorf("%s.%s: %w", s.name, f.Name, ErrFieldExhausted)
		}
		v, next, err := f.Deserialize(rest, rec)
		if err != nil {
			return nil, nil, fmt.Errorf("%s.%s: %w", s.name, f.Name, err)
		}
		rec.Set(f.Name, v)
		rest = next
	}
	return rec, rest, nil
}
