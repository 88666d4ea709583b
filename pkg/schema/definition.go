package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldSpec is one declared field, as written in the schema document.
// Type holds the raw token; it is resolved to a LogicalType at compile time.
type FieldSpec struct {
	Name       string
	Type       string
	Required   bool
	Min        *float64
	Max        *float64
	Default    any
	HasDefault bool
}

// Definition is the ordered set of fields loaded from one schema resource.
// It is not modified after construction.
type Definition struct {
	fields []FieldSpec
	index  map[string]int
}

// NewDefinition builds a Definition from field specs, keeping their order.
// Field names must be non-empty and unique.
func NewDefinition(specs ...FieldSpec) (*Definition, error) {
	d := &Definition{
		fields: make([]FieldSpec, 0, len(specs)),
		index:  make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if s.Name == "" {
			return nil, &ParseError{Reason: "field name cannot be empty"}
		}
		if _, dup := d.index[s.Name]; dup {
			return nil, &ParseError{Field: s.Name, Reason: "field declared more than once"}
		}
		d.index[s.Name] = len(d.fields)
		d.fields = append(d.fields, s)
	}
	return d, nil
}

// Len returns the number of declared fields.
func (d *Definition) Len() int { return len(d.fields) }

// Fields returns a copy of the field specs in declaration order.
func (d *Definition) Fields() []FieldSpec {
	out := make([]FieldSpec, len(d.fields))
	copy(out, d.fields)
	return out
}

// Field looks up a field spec by name.
func (d *Definition) Field(name string) (FieldSpec, bool) {
	i, ok := d.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return d.fields[i], true
}

// Names returns the declared field names in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

type fieldDocument struct {
	Type     string   `json:"type,omitempty"`
	Required bool     `json:"required"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Default  any      `json:"default,omitempty"`
}

// MarshalJSON writes the definition back in schema document form, keeping
// declaration order.
func (d *Definition) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		doc := fieldDocument{Type: f.Type, Required: f.Required, Min: f.Min, Max: f.Max}
		if f.HasDefault {
			doc.Default = f.Default
		}
		val, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
