// Package openapi renders compiled validators as OpenAPI 3 schema objects so
// clients can validate records before submitting them.
package openapi

import (
	"fmt"

	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// Schema describes the records v accepts as an OpenAPI object schema.
//
// Only fields that are required without a default are listed as required.
// Optional fields are nullable. String length bounds apply after the value is
// trimmed and lower-cased, which OpenAPI cannot express, so the exported
// schema accepts a superset of what v accepts.
func Schema(v *schema.Validator) *openapi3.Schema {
	obj := openapi3.NewObjectSchema().WithoutAdditionalProperties()
	for _, f := range v.Fields() {
		obj.WithProperty(f.Name, fieldSchema(f))
		if f.Presence == schema.RequiredNoDefault {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	return obj
}

func fieldSchema(f schema.CompiledField) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case schema.Int:
		s = openapi3.NewIntegerSchema()
		applyRange(s, f)
	case schema.Float:
		s = openapi3.NewFloat64Schema()
		applyRange(s, f)
	case schema.Bool:
		s = openapi3.NewBoolSchema()
	default:
		s = openapi3.NewStringSchema()
		if f.Min != nil {
			s.WithMinLength(int64(*f.Min))
		}
		if f.Max != nil {
			s.WithMaxLength(int64(*f.Max))
		}
	}

	if f.Presence == schema.Optional {
		s.WithNullable()
	}
	if f.HasDefault {
		s.WithDefault(f.Default)
	}
	s.Description = fmt.Sprintf("%s field (%s)", f.Type, f.Presence)
	return s
}

func applyRange(s *openapi3.Schema, f schema.CompiledField) {
	if f.Min != nil {
		s.WithMin(*f.Min)
	}
	if f.Max != nil {
		s.WithMax(*f.Max)
	}
}
